package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/adapters/persistence"
	"github.com/khoahotran/labour-connect/internal/config"
	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/internal/domain/user"
	"github.com/khoahotran/labour-connect/pkg/auth"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// Seeds one account from SEED_EMAIL / SEED_PASSWORD. With SEED_SAMPLE_PROFILE
// set, a sample labour profile is written for it too.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_EMAIL")))
	password := os.Getenv("SEED_PASSWORD")
	if email == "" || password == "" {
		appLogger.Fatal("SEED_EMAIL and SEED_PASSWORD are required", nil)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		appLogger.Fatal("cannot hash password", err)
	}

	pool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect DB", err)
	}
	defer pool.Close()

	ctx := context.Background()
	userRepo := persistence.NewPostgresUserRepo(pool, appLogger)

	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	if err := userRepo.Create(ctx, u); err != nil {
		if !errors.Is(err, user.ErrEmailDuplicate) {
			appLogger.Fatal("cannot add user", err)
		}
		existing, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			appLogger.Fatal("cannot load existing user", err)
		}
		u = existing
		appLogger.Info("User already exists, reusing", zap.String("email", email))
	}

	if os.Getenv("SEED_SAMPLE_PROFILE") != "" {
		var repo labour.Repository
		if cfg.Store.Driver == config.StoreDriverMongo {
			db, err := persistence.NewMongoDatabase(ctx, cfg, appLogger)
			if err != nil {
				appLogger.Fatal("cannot connect MongoDB", err)
			}
			defer db.Client().Disconnect(context.Background())
			repo = persistence.NewMongoLabourRepo(db, appLogger)
		} else {
			repo = persistence.NewPostgresLabourRepo(pool, appLogger)
		}

		p, err := labour.ReduceAll(labour.NewEmpty(u.ID.String()),
			labour.SetName("Rajesh Kumar"),
			labour.SetContact("9876543210"),
			labour.AddSkill("Plumbing"),
			labour.AddSkill("Carpentry"),
			labour.ToggleAvailability(labour.Monday),
			labour.ToggleAvailability(labour.Friday),
			labour.SetCharges(500),
			labour.SetLocation("Pune"),
		)
		if err != nil {
			appLogger.Fatal("cannot build sample profile", err)
		}
		p.ID = p.UserID
		if err := repo.Set(ctx, &p); err != nil {
			appLogger.Fatal("cannot write sample profile", err)
		}
		appLogger.Info("Sample profile written", zap.String("user_id", p.UserID))
	}

	appLogger.Info("Seeded user", zap.String("email", email), zap.String("user_id", u.ID.String()))
}
