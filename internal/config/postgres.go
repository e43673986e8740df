package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	pgxMaxConnections  = int32(8)
	pgxMinConnections  = int32(2)
	maxOpenConnections = 50
	maxIdleConnections = 10
	maxConnLifetime    = time.Hour
	maxConnIdleTime    = time.Minute * 5
	healthCheckPeriod  = time.Minute
	connectTimeout     = time.Second * 5
)

// PGXPoolConfig creates a tuned pgxpool.Config for dsn.
func PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing postgres dsn: %w", ErrInvalidConfig, err)
	}

	dbConfig.MaxConns = pgxMaxConnections
	dbConfig.MinConns = pgxMinConnections
	dbConfig.MaxConnLifetime = maxConnLifetime
	dbConfig.MaxConnIdleTime = maxConnIdleTime
	dbConfig.HealthCheckPeriod = healthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = connectTimeout

	return dbConfig, nil
}

// OpenPGXPool opens and pings a pgx pool.
func OpenPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return pool, nil
}

// OpenSQLDB opens and pings a tuned *sql.DB with the lib/pq driver.
func OpenSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	tunePool(db)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return db, nil
}

// OpenSQLX opens and pings a tuned *sqlx.DB with the lib/pq driver.
func OpenSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	tunePool(db.DB)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return db, nil
}

func tunePool(db *sql.DB) {
	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	db.SetConnMaxIdleTime(maxConnIdleTime)
}
