// Package cache stores encoded snapshots of reflected services so builds can
// skip locating and reflecting classes.
//
// Every backend implements Pool. Open picks one from a Config:
//
//	pool, err := cache.Open(ctx, cache.Config{Driver: cache.DriverRedis, RedisAddr: "localhost:6379"})
package cache

import (
	"context"
	"io"
	"time"

	"github.com/km-arc/go-autowire/framework/errors"
)

// Pool is a byte-oriented key value store.
type Pool interface {
	// Get reports whether key exists and returns its value.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Drivers understood by Open.
const (
	DriverNull   = "null"
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config selects and configures a Pool.
type Config struct {
	Driver string
	// Path is the directory of the file driver.
	Path string
	// DSN is the database file of the sqlite driver.
	DSN       string
	RedisAddr string
	// Size bounds the memory driver; zero is unbounded.
	Size int
	// TTL expires entries of the memory and redis drivers; zero keeps them.
	TTL time.Duration
}

// Open returns the Pool for cfg.Driver. An empty driver is DriverNull.
func Open(ctx context.Context, cfg Config) (Pool, error) {
	switch cfg.Driver {
	case "", DriverNull:
		return Null{}, nil
	case DriverMemory:
		return NewMemory(cfg.Size, cfg.TTL), nil
	case DriverFile:
		return NewFile(cfg.Path)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.TTL)
	}
	return nil, &errors.ConfigurationError{Reason: "unknown cache driver " + cfg.Driver}
}

// Close closes pool when it holds resources.
func Close(pool Pool) error {
	if c, ok := pool.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ── Null ──────────────────────────────────────────────────────────────────────

// Null never stores anything.
type Null struct{}

func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Null) Store(context.Context, string, []byte) error       { return nil }
func (Null) Delete(context.Context, string) error              { return nil }
