// Package adapters provide database adapter implementations for the SQL circulation engine.
//
// Three connection types are supported: pgxpool.Pool, sql.DB and sqlx.DB. All adapters offer
// plain query execution and serializable transactions through the DBAdapter interface, so the
// engine runs the same goqu-built SQL on any of them.
package adapters
