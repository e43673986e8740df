package circulation

import (
	"context"
	"time"
)

// CatalogStore holds books and students.
type CatalogStore interface {
	GetBook(ctx context.Context, id int64) (Book, error)
	GetStudent(ctx context.Context, id int64) (Student, error)
	ListBooks(ctx context.Context) ([]Book, error)
	ListStudents(ctx context.Context) ([]Student, error)

	// SetBookAvailable is reserved for the issue and return transactions.
	SetBookAvailable(ctx context.Context, id int64, available bool) error

	AddBook(ctx context.Context, title, author string) (Book, error)
	AddStudent(ctx context.Context, name, email string) (Student, error)

	// RemoveBook fails with ErrConflict while the book has an open issue log.
	RemoveBook(ctx context.Context, id int64) error

	// RemoveStudent fails with ErrConflict while the student has an open issue log.
	RemoveStudent(ctx context.Context, id int64) error
}

// Ledger holds issue logs. It is append-only except for the single ReturnDate transition.
type Ledger interface {
	GetEntry(ctx context.Context, logID int64) (IssueLog, error)

	// OpenEntryForBook returns the open entry of a book, if there is one.
	OpenEntryForBook(ctx context.Context, bookID int64) (IssueLog, bool, error)
	OpenEntriesForStudent(ctx context.Context, studentID int64) ([]IssueLog, error)

	// Entries returns all entries ordered by id.
	Entries(ctx context.Context) ([]IssueLog, error)

	CreateEntry(ctx context.Context, studentID, bookID int64, issueDate time.Time) (IssueLog, error)

	// CloseEntry fails with ErrNotFound or ErrAlreadyClosed.
	CloseEntry(ctx context.Context, logID int64, returnDate time.Time) (IssueLog, error)
}

// AdminDirectory holds the credentials accepted by the administrative surface.
type AdminDirectory interface {
	AddAdmin(ctx context.Context, username, password string) (Admin, error)
	AuthenticateAdmin(ctx context.Context, username, password string) (Admin, error)
}

// Tx is the view of the catalog and the ledger inside one unit of work.
type Tx interface {
	CatalogStore
	Ledger
}

// TxFunc is the body of a unit of work.
type TxFunc func(tx Tx) error

// Engine is the complete persistence contract of the tracker.
//
// Atomically runs fn so that either all of its writes become visible or none of them do.
// A unit of work that lost a race against a concurrent one fails with ErrConcurrencyConflict.
type Engine interface {
	CatalogStore
	Ledger
	AdminDirectory
	Atomically(ctx context.Context, fn TxFunc) error
}
