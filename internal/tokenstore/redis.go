package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

// Redis stores items as plain string keys under a prefix, so several
// processes can share one token.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis wraps an existing client. The caller keeps ownership of rdb.
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{rdb: rdb, prefix: prefix, owned: true}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) GetItem(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.RecordStoreOperation("redis", "get", time.Since(start), nil)
		return "", false, nil
	}
	metrics.RecordStoreOperation("redis", "get", time.Since(start), err)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	start := time.Now()
	err := r.rdb.Set(ctx, r.key(key), value, 0).Err()
	metrics.RecordStoreOperation("redis", "set", time.Since(start), err)
	return err
}

func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	start := time.Now()
	err := r.rdb.Del(ctx, r.key(key)).Err()
	metrics.RecordStoreOperation("redis", "remove", time.Since(start), err)
	return err
}

// Client exposes the underlying connection so other caches can share it.
func (r *Redis) Client() redis.UniversalClient { return r.rdb }

func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.rdb.Close()
}
