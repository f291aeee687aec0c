package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/metrics"
	"tasty-burger-backend/internal/model"
)

const (
	productKeyPrefix = "product:"
	defaultCacheTTL  = 5 * time.Minute
)

// RedisProductCache guarda productos serializados en JSON.
// Un miss devuelve (nil, nil).
type RedisProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisProductCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisProductCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisProductCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "product-cache"),
	}
}

func (c *RedisProductCache) Get(ctx context.Context, id string) (*model.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Error("cache get error", "product_id", id, "error", err)
		return nil, err
	}

	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &p, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p *model.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, productKeyPrefix+p.ID.Hex(), data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set error", "product_id", p.ID.Hex(), "error", err)
		return err
	}
	return nil
}

func (c *RedisProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id).Err(); err != nil {
		c.logger.Error("cache delete error", "product_id", id, "error", err)
		return err
	}
	return nil
}
