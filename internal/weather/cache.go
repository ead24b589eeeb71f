package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores recent observations keyed by query.
type Cache interface {
	Get(ctx context.Context, key string) (Data, bool, error)
	Set(ctx context.Context, key string, d Data, ttl time.Duration) error
}

// RedisCache keeps observations as JSON strings with a TTL.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix + "weather:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Data, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, err
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, false, fmt.Errorf("corrupt cached weather: %w", err)
	}
	return d, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, d Data, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func cacheKey(q Query) string {
	if q.Provider == ProviderOpenWeather {
		return fmt.Sprintf("%s:%.4f,%.4f", ProviderOpenWeather, q.Lat, q.Lon)
	}
	return fmt.Sprintf("%s:%s:%.4f,%.4f", ProviderQWeather, q.Location, q.Lat, q.Lon)
}
