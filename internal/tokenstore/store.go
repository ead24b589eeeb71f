// Package tokenstore provides the persistent backends behind the token
// manager: memory, an owner-only file, redis and postgres.
package tokenstore

import (
	"context"
	"fmt"
	"io"

	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/config"
)

// Store is a client.Store that holds resources until closed.
type Store interface {
	client.Store
	io.Closer
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*Postgres)(nil)
)

// Open builds the backend selected by cfg.Backend. name scopes the default
// file path, typically the CLI context.
func Open(ctx context.Context, cfg config.StoreConfig, name string) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		path := cfg.File.Path
		if path == "" {
			var err error
			if path, err = DefaultFilePath(name); err != nil {
				return nil, err
			}
		}
		return NewFile(path, cfg.File.EncryptionKey), nil
	case "redis":
		return DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	case "postgres":
		return ConnectPostgres(cfg.Postgres.ConnectionString())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
