// Package cache is a small Redis-backed key/value cache used for advisory
// responses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is filled by cleanenv from the `cache` section.
type Config struct {
	Addr     string `yaml:"addr" env:"KGTUTOR_REDIS_ADDR" env-default:""`
	Password string `yaml:"-" env:"KGTUTOR_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"KGTUTOR_REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"KGTUTOR_REDIS_PREFIX" env-default:"kgtutor:"`
}

// Redis stores byte values under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis. It returns nil, nil when no address is
// configured.
func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

// Get returns the value for key. A missing key is reported with ok false
// and no error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores val under key. A non-positive ttl keeps the key forever.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, val, ttl).Err()
}

func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}
