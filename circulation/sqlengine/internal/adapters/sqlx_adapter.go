package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db     *sqlx.DB
	txOpts *sql.TxOptions
}

// NewSQLXAdapter creates a new SQLX adapter. txOpts may be nil to use the driver defaults.
func NewSQLXAdapter(db *sqlx.DB, txOpts *sql.TxOptions) *SQLXAdapter {
	return &SQLXAdapter{db: db, txOpts: txOpts}
}

// Query executes a query using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.db, query)
}

// Exec executes a statement using the sqlx.DB and returns the wrapped result.
func (s *SQLXAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return stdExec(ctx, s.db, query)
}

// BeginTx starts a transaction with the configured options.
func (s *SQLXAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTxx(ctx, s.txOpts)
	if err != nil {
		return nil, err
	}

	return &stdTx{tx: tx}, nil
}
