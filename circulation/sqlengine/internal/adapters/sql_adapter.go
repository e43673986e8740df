package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db     *sql.DB
	txOpts *sql.TxOptions
}

// NewSQLAdapter creates a new SQL adapter. txOpts may be nil to use the driver defaults.
func NewSQLAdapter(db *sql.DB, txOpts *sql.TxOptions) *SQLAdapter {
	return &SQLAdapter{db: db, txOpts: txOpts}
}

// Query executes a query using the sql.DB and returns wrapped rows.
func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.db, query)
}

// Exec executes a statement using the sql.DB and returns the wrapped result.
func (s *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return stdExec(ctx, s.db, query)
}

// BeginTx starts a transaction with the configured options.
func (s *SQLAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return nil, err
	}

	return &stdTx{tx: tx}, nil
}
