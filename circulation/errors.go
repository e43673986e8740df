package circulation

import (
	"errors"
)

// Business errors. They are returned unchanged (or wrapped) to the administrative surface.
var (
	ErrNotFound             = errors.New("not found")
	ErrUnavailable          = errors.New("book is not available")
	ErrAlreadyClosed        = errors.New("issue log is already closed")
	ErrConflict             = errors.New("operation blocked by an open issue log")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrCheckoutLimitReached = errors.New("student has reached the checkout limit")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")

	// ErrInconsistentState is returned when a book's availability flag disagrees with the ledger.
	ErrInconsistentState = errors.New("availability flag and ledger disagree")
)

// Technical errors.
var (
	ErrConcurrencyConflict   = errors.New("concurrency conflict, unit of work was not applied")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying failed")
	ErrWritingFailed         = errors.New("writing failed")
	ErrScanningDBRowFailed   = errors.New("scanning db row failed")
	ErrUnsupportedDialect    = errors.New("unsupported sql dialect")
)
