package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverMemory selects the in-process backend.
	DriverMemory = "memory"
	// DriverRedis selects the Redis backend.
	DriverRedis = "redis"
	// DriverSQLite selects the SQLite file backend.
	DriverSQLite = "sqlite"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions groups configuration for storage drivers.
type FactoryOptions struct {
	// Memory configures the in-process backend.
	Memory MemoryOptions
	// Redis configures the Redis backend.
	Redis RedisOptions
	// SQLite configures the SQLite backend.
	SQLite SQLiteOptions
}

// NewFromDriver constructs a Storage implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory:
		return NewMemory(opts.Memory), nil
	case DriverRedis:
		return NewRedis(ctx, opts.Redis)
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLite)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
