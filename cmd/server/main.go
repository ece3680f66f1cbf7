package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/adapters/event"
	httpAdapter "github.com/khoahotran/labour-connect/adapters/http"
	"github.com/khoahotran/labour-connect/adapters/media_storage"
	"github.com/khoahotran/labour-connect/adapters/persistence"
	"github.com/khoahotran/labour-connect/internal/application/service"
	authUC "github.com/khoahotran/labour-connect/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/labour-connect/internal/application/usecase/profile"
	"github.com/khoahotran/labour-connect/internal/config"
	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/pkg/auth"
	"github.com/khoahotran/labour-connect/pkg/logger"
	"github.com/khoahotran/labour-connect/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start Labour Connect API Server...", zap.String("env", cfg.App.Env))

	shutdownTracing, err := tracing.Init(cfg, appLogger, "labour-api")
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Database
	if cfg.DB.MigrationsPath != "" {
		if err := persistence.RunMigrations(cfg.DB.DSN, cfg.DB.MigrationsPath, appLogger); err != nil {
			appLogger.Fatal("cannot run migrations", err)
		}
	}

	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Document store
	var labourRepo labour.Repository
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		mongoDB, err := persistence.NewMongoDatabase(context.Background(), cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect MongoDB", err)
		}
		defer mongoDB.Client().Disconnect(context.Background())
		labourRepo = persistence.NewMongoLabourRepo(mongoDB, appLogger)
	default:
		labourRepo = persistence.NewPostgresLabourRepo(dbPool, appLogger)
	}

	// Sessions and token denylist
	var (
		redisClient *redis.Client
		sessions    profileUC.SessionStore
		revoker     service.TokenRevoker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect Redis", err)
		}
		defer redisClient.Close()
		revoker = persistence.NewRedisTokenDenylist(redisClient)
	} else {
		revoker = persistence.NewMemoryTokenDenylist()
	}

	switch cfg.Store.SessionDriver {
	case config.SessionDriverRedis:
		if redisClient == nil {
			appLogger.Fatal("store.session_driver is redis but redis.addr is empty", nil)
		}
		sessions = persistence.NewRedisSessionStore(redisClient, cfg.Store.SessionTTL)
	default:
		sessions = persistence.NewMemorySessionStore()
	}

	// Events
	var publisher service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("No Kafka brokers configured, orphaned images will not be cleaned up")
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)

	// Use Cases
	signUpUseCase := authUC.NewSignUpUseCase(userRepo, jwtSvc, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	signOutUseCase := authUC.NewSignOutUseCase(revoker, jwtSvc, appLogger)
	profileUseCase := profileUC.NewProfileUseCase(
		auth.ContextIdentity{},
		labourRepo,
		uploader,
		sessions,
		publisher,
		cfg.Cloudinary.Folder,
		appLogger,
	)

	// HTTP Handlers
	authHandler := httpAdapter.NewAuthHandler(signUpUseCase, loginUseCase, signOutUseCase, profileUseCase, appLogger)
	profileHandler := httpAdapter.NewProfileHandler(profileUseCase, cfg.Upload.MaxBytes, appLogger)
	authMiddleware := httpAdapter.AuthMiddleware(jwtSvc, revoker, appLogger)

	router := httpAdapter.NewRouter(authHandler, profileHandler, authMiddleware, appLogger)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
