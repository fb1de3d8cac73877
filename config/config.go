// Package config loads the service configuration from the environment and
// owns the construction of the shared infrastructure clients.
package config

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrParsingEnvFailed    = errors.New("parsing environment failed")
	ErrParsingPostgresURL  = errors.New("parsing postgres url failed")
	ErrConnectingPostgres  = errors.New("connecting to postgres failed")
	ErrConnectingRedis     = errors.New("connecting to redis failed")
)

// Config is the full service configuration, populated from environment variables.
type Config struct {
	Postgres Postgres
	Redis    Redis
	Consumer Consumer
	Backfill Backfill
}

// Postgres holds the database connection settings.
type Postgres struct {
	URL      string `env:"DATABASE_URL,required,notEmpty"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
}

// Redis holds the record log connection settings.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Consumer holds the reconciliation loop settings. Name defaults to the
// hostname so each pod gets its own consumer identity within the group.
type Consumer struct {
	Group       string        `env:"CONSUMER_GROUP" envDefault:"syfooversiktsrv"`
	Name        string        `env:"CONSUMER_NAME"`
	BatchSize   int           `env:"CONSUMER_BATCH_SIZE" envDefault:"100"`
	PollTimeout time.Duration `env:"CONSUMER_POLL_TIMEOUT" envDefault:"2s"`
	KeyPrefix   string        `env:"CONSUMER_KEY_PREFIX"`
}

// Backfill holds the metadata enrichment settings.
type Backfill struct {
	Enabled   bool          `env:"BACKFILL_ENABLED" envDefault:"false"`
	Interval  time.Duration `env:"BACKFILL_INTERVAL" envDefault:"10m"`
	BatchSize int           `env:"BACKFILL_BATCH_SIZE" envDefault:"50"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrParsingEnvFailed, err)
	}

	if cfg.Consumer.Name == "" {
		hostname, hostErr := os.Hostname()
		if hostErr != nil {
			hostname = cfg.Consumer.Group
		}

		cfg.Consumer.Name = hostname
	}

	return cfg, nil
}

// NewPGXPool creates and pings a pgx connection pool from the settings.
func NewPGXPool(ctx context.Context, cfg Postgres) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrParsingPostgresURL, err)
	}

	poolConfig.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingPostgres, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingPostgres, err)
	}

	return pool, nil
}

// NewRedisClient creates and pings a Redis client from the settings.
func NewRedisClient(ctx context.Context, cfg Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectingRedis, err)
	}

	return client, nil
}
