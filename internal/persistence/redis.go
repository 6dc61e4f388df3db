package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/config"
)

// Redis holds the client behind the session registry.
type Redis struct {
	Client *redis.Client
	// Prefix namespaces every session key (<prefix>:sess:...) so several
	// storefronts can share one Redis database.
	Prefix string
}

// NewRedis builds the client for the session registry. An unreachable server
// is logged, not fatal: logins fail and requests resolve as anonymous until
// it comes back, and /health/ready reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("session registry unreachable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("session registry connected", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.Prefix))
	}

	return &Redis{Client: client, Prefix: cfg.Prefix}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports whether the session registry is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("session registry not configured")
	}
	return r.Client.Ping(ctx).Err()
}
