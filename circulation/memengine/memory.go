package memengine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	logMsgUnitRolledBack = "unit of work rolled back"
	logMsgUnitCommitted  = "unit of work committed"
	logAttrError         = "error"
	logAttrUndoSteps     = "undo_steps"
)

// Store is an in-memory circulation.Engine.
type Store struct {
	mu     sync.RWMutex
	state  *state
	logger circulation.Logger
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
// Debug level: committed units of work. Warn level: rolled back units of work.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty Store.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{state: newState()}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

type state struct {
	books         map[int64]circulation.Book
	students      map[int64]circulation.Student
	admins        map[string]circulation.Admin
	entries       []circulation.IssueLog
	lastBookID    int64
	lastStudentID int64
	lastAdminID   int64
}

func newState() *state {
	return &state{
		books:    make(map[int64]circulation.Book),
		students: make(map[int64]circulation.Student),
		admins:   make(map[string]circulation.Admin),
		entries:  make([]circulation.IssueLog, 0),
	}
}

// Atomically runs fn under the writer lock. If fn fails or panics, all of its writes are undone.
func (s *Store) Atomically(ctx context.Context, fn circulation.TxFunc) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &unit{state: s.state}

	defer func() {
		if r := recover(); r != nil {
			u.rollback()
			panic(r)
		}
	}()

	if err = fn(u); err != nil {
		steps := u.rollback()
		if s.logger != nil {
			s.logger.Warn(logMsgUnitRolledBack, logAttrError, err.Error(), logAttrUndoSteps, steps)
		}

		return err
	}

	if s.logger != nil {
		s.logger.Debug(logMsgUnitCommitted, logAttrUndoSteps, len(u.undo))
	}

	return nil
}

// read runs fn under the reader lock.
func (s *Store) read(ctx context.Context, fn func(u *unit) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&unit{state: s.state})
}

// GetBook returns the book with the given id.
func (s *Store) GetBook(ctx context.Context, id int64) (book circulation.Book, err error) {
	err = s.read(ctx, func(u *unit) error {
		book, err = u.GetBook(ctx, id)
		return err
	})

	return book, err
}

// GetStudent returns the student with the given id.
func (s *Store) GetStudent(ctx context.Context, id int64) (student circulation.Student, err error) {
	err = s.read(ctx, func(u *unit) error {
		student, err = u.GetStudent(ctx, id)
		return err
	})

	return student, err
}

// ListBooks returns all books ordered by id.
func (s *Store) ListBooks(ctx context.Context) (books []circulation.Book, err error) {
	err = s.read(ctx, func(u *unit) error {
		books, err = u.ListBooks(ctx)
		return err
	})

	return books, err
}

// ListStudents returns all students ordered by id.
func (s *Store) ListStudents(ctx context.Context) (students []circulation.Student, err error) {
	err = s.read(ctx, func(u *unit) error {
		students, err = u.ListStudents(ctx)
		return err
	})

	return students, err
}

// SetBookAvailable sets the availability flag of a book.
func (s *Store) SetBookAvailable(ctx context.Context, id int64, available bool) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.SetBookAvailable(ctx, id, available)
	})
}

// AddBook adds an available book to the catalog.
func (s *Store) AddBook(ctx context.Context, title, author string) (book circulation.Book, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		book, err = tx.AddBook(ctx, title, author)
		return err
	})

	return book, err
}

// AddStudent registers a student.
func (s *Store) AddStudent(ctx context.Context, name, email string) (student circulation.Student, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		student, err = tx.AddStudent(ctx, name, email)
		return err
	})

	return student, err
}

// RemoveBook removes a book that is not on loan.
func (s *Store) RemoveBook(ctx context.Context, id int64) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.RemoveBook(ctx, id)
	})
}

// RemoveStudent removes a student without open issue logs.
func (s *Store) RemoveStudent(ctx context.Context, id int64) error {
	return s.Atomically(ctx, func(tx circulation.Tx) error {
		return tx.RemoveStudent(ctx, id)
	})
}

// GetEntry returns the issue log with the given id.
func (s *Store) GetEntry(ctx context.Context, logID int64) (entry circulation.IssueLog, err error) {
	err = s.read(ctx, func(u *unit) error {
		entry, err = u.GetEntry(ctx, logID)
		return err
	})

	return entry, err
}

// OpenEntryForBook returns the open issue log of a book, if there is one.
func (s *Store) OpenEntryForBook(ctx context.Context, bookID int64) (entry circulation.IssueLog, found bool, err error) {
	err = s.read(ctx, func(u *unit) error {
		entry, found, err = u.OpenEntryForBook(ctx, bookID)
		return err
	})

	return entry, found, err
}

// OpenEntriesForStudent returns the open issue logs of a student.
func (s *Store) OpenEntriesForStudent(ctx context.Context, studentID int64) (entries []circulation.IssueLog, err error) {
	err = s.read(ctx, func(u *unit) error {
		entries, err = u.OpenEntriesForStudent(ctx, studentID)
		return err
	})

	return entries, err
}

// Entries returns all issue logs ordered by id.
func (s *Store) Entries(ctx context.Context) (entries []circulation.IssueLog, err error) {
	err = s.read(ctx, func(u *unit) error {
		entries, err = u.Entries(ctx)
		return err
	})

	return entries, err
}

// CreateEntry appends an open issue log.
func (s *Store) CreateEntry(ctx context.Context, studentID, bookID int64, issueDate time.Time) (entry circulation.IssueLog, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		entry, err = tx.CreateEntry(ctx, studentID, bookID, issueDate)
		return err
	})

	return entry, err
}

// CloseEntry sets the return date of an open issue log.
func (s *Store) CloseEntry(ctx context.Context, logID int64, returnDate time.Time) (entry circulation.IssueLog, err error) {
	err = s.Atomically(ctx, func(tx circulation.Tx) error {
		entry, err = tx.CloseEntry(ctx, logID, returnDate)
		return err
	})

	return entry, err
}

// AddAdmin adds administrator credentials.
func (s *Store) AddAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	if err := ctx.Err(); err != nil {
		return circulation.Admin{}, err
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return circulation.Admin{}, fmt.Errorf("%w: username and password must not be empty", circulation.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.admins[username]; exists {
		return circulation.Admin{}, fmt.Errorf("admin %q: %w", username, circulation.ErrDuplicateKey)
	}

	s.state.lastAdminID++
	admin := circulation.Admin{ID: s.state.lastAdminID, Username: username, Password: password}
	s.state.admins[username] = admin

	return admin, nil
}

// AuthenticateAdmin checks username and password against the stored credentials.
func (s *Store) AuthenticateAdmin(ctx context.Context, username, password string) (circulation.Admin, error) {
	if err := ctx.Err(); err != nil {
		return circulation.Admin{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, exists := s.state.admins[strings.TrimSpace(username)]
	if !exists || !circulation.PasswordMatches(admin.Password, password) {
		return circulation.Admin{}, circulation.ErrInvalidCredentials
	}

	return admin, nil
}

func sortedValues[V any](m map[int64]V) []V {
	ids := slices.Sorted(maps.Keys(m))
	values := make([]V, 0, len(ids))

	for _, id := range ids {
		values = append(values, m[id])
	}

	return values
}
