package sources

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds configuration for reading environment values from a Redis hash
type RedisConfig struct {
	Address     string        `yaml:"address"`
	Username    string        `yaml:"username,omitempty"`
	Password    string        `yaml:"password,omitempty"`
	Database    int           `yaml:"database,omitempty"`
	Key         string        `yaml:"key"`
	MaxIdle     int           `yaml:"max_idle"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// Validate checks if the RedisConfig has all required fields set
func (r RedisConfig) Validate() error {
	if r.Address == "" {
		return errors.New("redis address must be set and non-empty")
	}
	if r.Key == "" {
		return errors.New("redis key must be set and non-empty")
	}
	if r.MaxIdle < 0 {
		return errors.New("redis max_idle must be non-negative")
	}
	if r.IdleTimeout < 0 {
		return errors.New("redis idle_timeout must be non-negative")
	}
	if r.Database < 0 {
		return errors.New("redis database must be non-negative")
	}
	return nil
}

// CreateClient creates a Redis connection pool from this config.
func (r RedisConfig) CreateClient() (*redis.Pool, error) {
	if err := r.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Redis configuration")
	}

	opts := []redis.DialOption{redis.DialDatabase(r.Database)}
	if r.Username != "" {
		opts = append(opts, redis.DialUsername(r.Username))
	}
	if r.Password != "" {
		opts = append(opts, redis.DialPassword(r.Password))
	}

	return &redis.Pool{
		MaxIdle:     r.MaxIdle,
		IdleTimeout: r.IdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", r.Address, opts...)
		},
	}, nil
}

// ConnGetter hands out Redis connections. *redis.Pool implements it.
type ConnGetter interface {
	GetContext(ctx context.Context) (redis.Conn, error)
}

// RedisLoader reads every field of one Redis hash.
type RedisLoader struct {
	pool ConnGetter
	key  string
}

// NewRedisLoader creates a loader for the hash stored at key.
func NewRedisLoader(pool ConnGetter, key string) *RedisLoader {
	return &RedisLoader{pool: pool, key: key}
}

// Load implements Loader.
func (r *RedisLoader) Load(ctx context.Context) (map[string]string, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Redis connection")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}()

	values, err := redis.StringMap(redis.DoContext(conn, ctx, "HGETALL", r.key))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read Redis hash %q", r.key)
	}

	log.Debug().
		Str("redis_key", r.key).
		Int("keys", len(values)).
		Msg("Retrieved environment from Redis hash")
	return values, nil
}

// Name implements Loader.
func (r *RedisLoader) Name() string {
	return "Redis"
}
