// Package postgreswrapper provides test utilities for running the SQL circulation engine
// against PostgreSQL through any of its supported connection types.
//
// The connection type is selected by the ADAPTER_TYPE environment variable
// (pgx.pool, sql.db or sqlx.db; pgx.pool when empty), so the same test suite can run
// against every adapter. Tests are skipped unless CIRCULATION_TEST_POSTGRES_DSN is set.
//
// Usage:
//
//	wrapper := postgreswrapper.CreateWrapper(t)
//	defer wrapper.Close()
//
//	postgreswrapper.CleanUp(t, wrapper)
//	store := wrapper.GetStore()
package postgreswrapper
