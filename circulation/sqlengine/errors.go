package sqlengine

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"

	openEntryIndex = "issuelogs_open_book_idx"
	openEntryTable = "issuelogs."
)

// translateDriverError maps a pgx, lib/pq or go-sqlite3 error to a circulation sentinel.
// It returns nil for errors that have no domain meaning.
func translateDriverError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code, pgErr.ConstraintName)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code), pqErr.Constraint)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return fromSQLite(sqliteErr)
	}

	return nil
}

func fromSQLState(code, constraint string) error {
	switch code {
	case sqlStateUniqueViolation:
		if constraint == openEntryIndex {
			return circulation.ErrConcurrencyConflict
		}

		return circulation.ErrDuplicateKey

	case sqlStateForeignKeyViolation:
		return circulation.ErrConflict

	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return circulation.ErrConcurrencyConflict

	default:
		return nil
	}
}

// fromSQLite maps SQLite result codes. SQLite reports the violated columns only in the message,
// e.g. "UNIQUE constraint failed: issuelogs.book_id".
func fromSQLite(err sqlite3.Error) error {
	switch {
	case err.ExtendedCode == sqlite3.ErrConstraintUnique:
		if strings.Contains(err.Error(), openEntryTable) {
			return circulation.ErrConcurrencyConflict
		}

		return circulation.ErrDuplicateKey

	case err.ExtendedCode == sqlite3.ErrConstraintForeignKey:
		return circulation.ErrConflict

	case err.Code == sqlite3.ErrBusy, err.Code == sqlite3.ErrLocked:
		return circulation.ErrConcurrencyConflict

	default:
		return nil
	}
}

// translate joins a driver error with its sentinel, or with fallback if it has none.
// Context errors are passed through unchanged.
func (s *Store) translate(err error, fallback error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if sentinel := translateDriverError(err); sentinel != nil {
		return errors.Join(sentinel, err)
	}

	return errors.Join(fallback, err)
}
