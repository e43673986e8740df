// Package testengines runs feature tests against every available engine.
//
// The memory engine and an in-memory SQLite engine are always used. PostgreSQL joins
// when CIRCULATION_TEST_POSTGRES_DSN is set.
package testengines

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memengine"
	"github.com/AntonStoeckl/library-circulation-go/circulation/sqlengine"
	"github.com/AntonStoeckl/library-circulation-go/testutil/enginetest"
	"github.com/AntonStoeckl/library-circulation-go/testutil/postgreswrapper"
)

// SQLiteMemoryDSN opens a private in-memory SQLite database with foreign keys enforced.
const SQLiteMemoryDSN = ":memory:?_foreign_keys=on"

// Memory returns a fresh memory engine.
func Memory(t *testing.T) circulation.Engine {
	t.Helper()

	store, err := memengine.NewStore()
	require.NoError(t, err, "error creating memory engine")

	return store
}

// SQLite returns a fresh, migrated in-memory SQLite engine.
func SQLite(t *testing.T) circulation.Engine {
	t.Helper()

	db, err := sql.Open("sqlite3", SQLiteMemoryDSN)
	require.NoError(t, err, "error opening DB in test setup")
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlengine.NewStoreFromSQLDB(db, sqlengine.WithDialect(sqlengine.DialectSQLite3))
	require.NoError(t, err, "error creating sqlite engine")
	require.NoError(t, store.Migrate(context.Background()), "error migrating the schema")

	return store
}

// Postgres returns the PostgreSQL engine selected by ADAPTER_TYPE with empty tables.
func Postgres(t *testing.T) circulation.Engine {
	t.Helper()

	wrapper := postgreswrapper.CreateWrapper(t)
	t.Cleanup(wrapper.Close)
	postgreswrapper.CleanUp(t, wrapper)

	return wrapper.GetStore()
}

// All returns the factories of every available engine by name.
func All() map[string]enginetest.Factory {
	factories := map[string]enginetest.Factory{
		"memory": Memory,
		"sqlite": SQLite,
	}

	if os.Getenv(postgreswrapper.DSNEnvVar) != "" {
		factories["postgres"] = Postgres
	}

	return factories
}

// ForEach runs test once per available engine, each time with a fresh engine.
func ForEach(t *testing.T, test func(t *testing.T, engine circulation.Engine)) {
	for name, newEngine := range All() {
		t.Run(name, func(t *testing.T) {
			test(t, newEngine(t))
		})
	}
}
