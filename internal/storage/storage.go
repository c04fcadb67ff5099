// Package storage selects and opens the backing store for templates and
// schedules by driver name.
package storage

import (
	"context"
	"fmt"
	"time"

	"carecal/internal/db"
	"carecal/internal/memstore"
	"carecal/internal/scheduler"
	"carecal/internal/sqlite"
	"carecal/internal/types"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Store is what every binary needs from the storage layer: the engine's
// stores, a liveness check and a way to release resources.
type Store interface {
	scheduler.Store
	Ping(ctx context.Context) error
	Close()
}

// Options configures Open. URL is a pgx connection string for postgres and a
// go-sqlite3 DSN for sqlite; memory ignores it.
type Options struct {
	Driver          string
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Open connects to the configured driver and applies its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPostgres:
		pool, err := db.OpenPool(ctx, db.PoolConfig{
			URL:             opts.URL,
			MaxConns:        opts.MaxConns,
			MinConns:        opts.MinConns,
			MaxConnLifetime: opts.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return db.NewStore(pool), nil
	case DriverSQLite:
		st, err := sqlite.Open(ctx, opts.URL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			fmt.Sprintf("unsupported database driver %q", opts.Driver), nil)
	}
}

// HealthProbe reports store connectivity under the name "database".
type HealthProbe struct {
	Store interface {
		Ping(ctx context.Context) error
	}
}

// Name implements core.HealthProbe.
func (p HealthProbe) Name() string { return "database" }

// Check implements core.HealthProbe.
func (p HealthProbe) Check(ctx context.Context) error {
	return p.Store.Ping(ctx)
}
