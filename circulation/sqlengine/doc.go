// Package sqlengine provides a relational implementation of circulation.Engine.
//
// Two SQL dialects are supported: PostgreSQL (through pgxpool.Pool, sql.DB with lib/pq, or sqlx.DB)
// and SQLite (through sql.DB or sqlx.DB with mattn/go-sqlite3). Statements are built with goqu
// and executed through a small adapter layer, so all connection types share the same code paths.
//
// Units of work run in a SERIALIZABLE transaction on PostgreSQL. On SQLite the pool is limited
// to one connection, which serialises all units of work. Serialisation failures, deadlocks,
// busy databases and races on the open-issue index are reported as circulation.ErrConcurrencyConflict.
//
// Basic usage:
//
//	store, err := sqlengine.NewStoreFromPGXPool(pool)
//	if err != nil { ... }
//	if err = store.Migrate(ctx); err != nil { ... }
//
//	err = store.Atomically(ctx, func(tx circulation.Tx) error {
//		...
//	})
//
// Books and students are soft-deleted, so that closed issue logs keep valid foreign keys.
package sqlengine
