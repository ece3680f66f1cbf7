package persistence

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/config"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// NewMongoDatabase connects, pings the primary and returns the configured database.
func NewMongoDatabase(ctx context.Context, cfg config.Config, log logger.Logger) (*mongo.Database, error) {
	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("mongo: empty mongo.uri")
	}

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("Connect MongoDB successfully.", zap.String("database", cfg.Mongo.Database))
	return cli.Database(cfg.Mongo.Database), nil
}
