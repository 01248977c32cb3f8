// Package cache holds the read-through cache for the "top products" list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/config"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const topProductsKey = "smartshop:products:top"

// TopProducts caches the top-rated listing. Failures are logged and treated
// as misses; the database stays the source of truth.
type TopProducts interface {
	Get(ctx context.Context) ([]models.Product, bool)
	Set(ctx context.Context, products []models.Product)
	Invalidate(ctx context.Context)
}

type RedisTopProducts struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedis connects to cfg.Addr and fails when the server does not answer.
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*RedisTopProducts, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisWithClient(client, cfg.TopTTL, log), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisTopProducts {
	return &RedisTopProducts{client: client, ttl: ttl, log: log}
}

func (c *RedisTopProducts) Get(ctx context.Context) ([]models.Product, bool) {
	raw, err := c.client.Get(ctx, topProductsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("top products cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.log.Warn("top products cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *RedisTopProducts) Set(ctx context.Context, products []models.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		c.log.Warn("top products cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, topProductsKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("top products cache write failed", zap.Error(err))
	}
}

func (c *RedisTopProducts) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, topProductsKey).Err(); err != nil {
		c.log.Warn("top products cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisTopProducts) Close() error {
	return c.client.Close()
}

// Noop never hits. It is used when no redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context) ([]models.Product, bool) { return nil, false }
func (Noop) Set(context.Context, []models.Product) {}
func (Noop) Invalidate(context.Context) {}
