package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"skill-journal/internal/config"
)

var ErrUnavailable = errors.New("redis unavailable")

// Redis wraps a go-redis client. When Redis cannot be reached at startup every
// operation degrades to a no-op so a single node keeps working without it.
type Redis struct {
	client *redis.Client
	logger *slog.Logger

	warnedUnavailable atomic.Bool
}

func NewRedis(cfg config.RedisConfig, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "cache"))

	if !cfg.Enabled() {
		logger.Info("redis not configured, running without cache")
		return &Redis{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, bypassing cache", slog.String("addr", cfg.Addr()), slog.Any("error", err))
		_ = client.Close()
		return &Redis{logger: logger}
	}

	return &Redis{client: client, logger: logger}
}

// NewRedisWithClient wraps an existing client without probing it.
func NewRedisWithClient(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger.With(slog.String("component", "cache"))}
}

func (r *Redis) Available() bool {
	return r != nil && r.client != nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil || r.logger == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis command failed, bypassing cache", slog.Any("error", err))
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if !r.Available() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if !r.Available() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return n > 0, nil
}
