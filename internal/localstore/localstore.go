// Package localstore is device-local key-value storage for the session
// snapshot. Get returns nil, nil for a missing key in every backend.
package localstore

import (
	"context"
	"fmt"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Driver   string // sqlite, redis or memory
	Path     string // sqlite file
	RedisURL string
}

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown local store driver %q", cfg.Driver)
	}
}
