package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig describes the storefront database and its connection pool.
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

// DefaultMongoConfig is used by tools that only pass a URI and a database.
func DefaultMongoConfig(uri, database string) MongoConfig {
	return MongoConfig{URI: uri, Database: database, MaxPoolSize: 100, MinPoolSize: 10, ConnectTimeout: 10 * time.Second}
}

func (c MongoConfig) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize)
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
	}
	return opts
}

// ConnectMongoDB connects and pings the server, returning the storefront database.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.MinPoolSize > cfg.MaxPoolSize && cfg.MaxPoolSize != 0 {
		return nil, fmt.Errorf("mongo min pool size %d exceeds max pool size %d", cfg.MinPoolSize, cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.Database), nil
}
