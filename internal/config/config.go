// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort           string        `envconfig:"GRPC_PORT" default:"50060"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI       string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName    string `envconfig:"MONGO_DB_NAME" default:"craftsdb"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"internal/repository/migrations"`

	MongoMaxPoolSize    uint64        `envconfig:"MONGO_MAX_POOL_SIZE" default:"100"`
	MongoMinPoolSize    uint64        `envconfig:"MONGO_MIN_POOL_SIZE" default:"10"`
	MongoConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`

	// RedisAddr empty disables the artisan cache.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// KafkaBrokers empty disables order event publishing.
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrderEventsTopic string   `envconfig:"ORDER_EVENTS_TOPIC" default:"order-events"`

	BlobServiceURL string        `envconfig:"BLOB_SERVICE_URL" default:"http://localhost:8090"`
	BlobTimeout    time.Duration `envconfig:"BLOB_TIMEOUT" default:"2s"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"5s"`

	EnrichConcurrency int `envconfig:"ENRICH_CONCURRENCY" default:"16"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.MongoMinPoolSize > c.MongoMaxPoolSize {
		return fmt.Errorf("MONGO_MIN_POOL_SIZE %d exceeds MONGO_MAX_POOL_SIZE %d", c.MongoMinPoolSize, c.MongoMaxPoolSize)
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL must be positive, got %s", c.HealthInterval)
	}
	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", c.EnrichConcurrency)
	}
	return nil
}
