package config

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memengine"
	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine"
)

// CloseFunc releases the resources of an opened engine.
type CloseFunc func()

// SQLiteDSN returns the go-sqlite3 DSN for path with foreign keys enforced.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// OpenEngine opens the engine selected by cfg and applies the schema for SQL engines.
func OpenEngine(ctx context.Context, cfg Config, o *Observability) (circulation.Engine, CloseFunc, error) {
	switch cfg.Store {
	case StoreMemory:
		store, err := memengine.NewStore(memengine.WithLogger(o.Logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil

	case StoreSQLite:
		db, err := sql.Open("sqlite3", SQLiteDSN(cfg.SQLitePath))
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}

		store, err := sqlengine.NewStoreFromSQLDB(db, sqlOptions(sqlengine.DialectSQLite3, o)...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return migrated(ctx, store, func() { _ = db.Close() })

	case StorePostgres:
		return openPostgres(ctx, cfg, o)

	default:
		return nil, nil, fmt.Errorf("%w: unsupported %s %q", ErrInvalidConfig, EnvStore, cfg.Store)
	}
}

func openPostgres(ctx context.Context, cfg Config, o *Observability) (circulation.Engine, CloseFunc, error) {
	options := sqlOptions(sqlengine.DialectPostgres, o)

	switch cfg.AdapterType {
	case AdapterPGXPool:
		pool, err := OpenPGXPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		store, err := sqlengine.NewStoreFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return migrated(ctx, store, pool.Close)

	case AdapterSQLDB:
		db, err := OpenSQLDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		store, err := sqlengine.NewStoreFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return migrated(ctx, store, func() { _ = db.Close() })

	case AdapterSQLXDB:
		db, err := OpenSQLX(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		store, err := sqlengine.NewStoreFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return migrated(ctx, store, func() { _ = db.Close() })

	default:
		return nil, nil, fmt.Errorf("%w: unsupported %s %q", ErrInvalidConfig, EnvAdapterType, cfg.AdapterType)
	}
}

func sqlOptions(dialect string, o *Observability) []sqlengine.Option {
	options := []sqlengine.Option{
		sqlengine.WithDialect(dialect),
		sqlengine.WithLogger(o.Logger),
	}

	if o.Metrics != nil {
		options = append(options, sqlengine.WithMetrics(o.Metrics))
	}

	if o.Tracing != nil {
		options = append(options, sqlengine.WithTracing(o.Tracing))
	}

	return options
}

func migrated(ctx context.Context, store *sqlengine.Store, closeFn CloseFunc) (circulation.Engine, CloseFunc, error) {
	if err := store.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}

	return store, closeFn, nil
}
