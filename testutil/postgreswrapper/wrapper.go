package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine"
)

// DSNEnvVar names the environment variable that enables the PostgreSQL integration tests.
const DSNEnvVar = "CIRCULATION_TEST_POSTGRES_DSN"

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper abstracts over the different connection types.
type Wrapper interface {
	GetStore() *sqlengine.Store
	Exec(ctx context.Context, query string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *sqlengine.Store
}

func (w *PGXPoolWrapper) GetStore() *sqlengine.Store { return w.store }

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.pool.Exec(ctx, query)
	return err
}

func (w *PGXPoolWrapper) Close() { w.pool.Close() }

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *sqlengine.Store
}

func (w *SQLDBWrapper) GetStore() *sqlengine.Store { return w.store }

func (w *SQLDBWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLDBWrapper) Close() { _ = w.db.Close() }

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *sqlengine.Store
}

func (w *SQLXWrapper) GetStore() *sqlengine.Store { return w.store }

func (w *SQLXWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLXWrapper) Close() { _ = w.db.Close() }

// DSN returns the test database DSN or skips the test.
func DSN(t testing.TB) string {
	dsn := os.Getenv(DSNEnvVar)
	if dsn == "" {
		t.Skipf("%s is not set, skipping PostgreSQL integration test", DSNEnvVar)
	}

	return dsn
}

// CreateWrapper creates the wrapper selected by ADAPTER_TYPE and migrates the schema.
func CreateWrapper(t testing.TB, options ...sqlengine.Option) Wrapper {
	dsn := DSN(t)
	ctx := context.Background()

	var wrapper Wrapper

	switch adapterType := strings.ToLower(os.Getenv("ADAPTER_TYPE")); adapterType {
	case typePGXPool, "":
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := sqlengine.NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case typeSQLDB:
		db, err := sql.Open("postgres", dsn)
		require.NoError(t, err, "error opening DB in test setup")

		store, err := sqlengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db, err := sqlx.Open("postgres", dsn)
		require.NoError(t, err, "error opening DB in test setup")

		store, err := sqlengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapterType))
	}

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error migrating the schema")

	return wrapper
}

// CleanUp removes all rows and resets the id sequences.
func CleanUp(t testing.TB, wrapper Wrapper) {
	err := wrapper.Exec(context.Background(), "TRUNCATE TABLE issuelogs, books, students, admins RESTART IDENTITY CASCADE")
	require.NoError(t, err, "error cleaning up the tables")
}
