package enginetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Factory returns a fresh, empty engine.
type Factory func(t *testing.T) circulation.Engine

var (
	issueDay  = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	returnDay = time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
)

// RunContract runs the engine contract suite.
func RunContract(t *testing.T, newEngine Factory) {
	t.Run("catalog add and lookup", func(t *testing.T) { testCatalogAddAndLookup(t, newEngine(t)) })
	t.Run("catalog rejects invalid input", func(t *testing.T) { testCatalogRejectsInvalidInput(t, newEngine(t)) })
	t.Run("duplicate email", func(t *testing.T) { testDuplicateEmail(t, newEngine(t)) })
	t.Run("ledger lifecycle", func(t *testing.T) { testLedgerLifecycle(t, newEngine(t)) })
	t.Run("ledger at most one open entry per book", func(t *testing.T) { testAtMostOneOpenEntryPerBook(t, newEngine(t)) })
	t.Run("ledger references existing records", func(t *testing.T) { testLedgerReferencesExistingRecords(t, newEngine(t)) })
	t.Run("ledger rejects zero dates", func(t *testing.T) { testLedgerRejectsZeroDates(t, newEngine(t)) })
	t.Run("remove book", func(t *testing.T) { testRemoveBook(t, newEngine(t)) })
	t.Run("remove student", func(t *testing.T) { testRemoveStudent(t, newEngine(t)) })
	t.Run("set book available", func(t *testing.T) { testSetBookAvailable(t, newEngine(t)) })
	t.Run("failed unit of work is not applied", func(t *testing.T) { testFailedUnitOfWork(t, newEngine(t)) })
	t.Run("concurrent units of work", func(t *testing.T) { testConcurrentUnitsOfWork(t, newEngine(t)) })
	t.Run("admins", func(t *testing.T) { testAdmins(t, newEngine(t)) })
}

// GivenBook adds a book and fails the test on error.
func GivenBook(ctx context.Context, t *testing.T, engine circulation.Engine, title string) circulation.Book {
	t.Helper()

	book, err := engine.AddBook(ctx, title, "Some Author")
	require.NoError(t, err, "error in arranging test data")

	return book
}

// GivenStudent adds a student and fails the test on error.
func GivenStudent(ctx context.Context, t *testing.T, engine circulation.Engine, name, email string) circulation.Student {
	t.Helper()

	student, err := engine.AddStudent(ctx, name, email)
	require.NoError(t, err, "error in arranging test data")

	return student
}

// GivenIssued issues a book through a unit of work the same way the issue transaction does.
func GivenIssued(ctx context.Context, t *testing.T, engine circulation.Engine, studentID, bookID int64) circulation.IssueLog {
	t.Helper()

	var entry circulation.IssueLog

	err := engine.Atomically(ctx, func(tx circulation.Tx) error {
		var err error
		if entry, err = tx.CreateEntry(ctx, studentID, bookID, issueDay); err != nil {
			return err
		}

		return tx.SetBookAvailable(ctx, bookID, false)
	})
	require.NoError(t, err, "error in arranging test data")

	return entry
}

// GivenReturned returns a book through a unit of work the same way the return transaction does.
func GivenReturned(ctx context.Context, t *testing.T, engine circulation.Engine, entry circulation.IssueLog) {
	t.Helper()

	err := engine.Atomically(ctx, func(tx circulation.Tx) error {
		if _, err := tx.CloseEntry(ctx, entry.ID, returnDay); err != nil {
			return err
		}

		return tx.SetBookAvailable(ctx, entry.BookID, true)
	})
	require.NoError(t, err, "error in arranging test data")
}

func testCatalogAddAndLookup(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()

	book, err := engine.AddBook(ctx, "  The Great Gatsby ", "F. Scott Fitzgerald")
	require.NoError(t, err)
	assert.Positive(t, book.ID)
	assert.Equal(t, "The Great Gatsby", book.Title)
	assert.True(t, book.Available, "new books are available")

	student, err := engine.AddStudent(ctx, "Alice Smith", "Alice@Example.org")
	require.NoError(t, err)
	assert.Positive(t, student.ID)
	assert.Equal(t, "alice@example.org", student.Email)

	reloadedBook, err := engine.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book, reloadedBook)

	reloadedStudent, err := engine.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student, reloadedStudent)

	second := GivenBook(ctx, t, engine, "Clean Code")
	books, err := engine.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, book.ID, books[0].ID)
	assert.Equal(t, second.ID, books[1].ID)

	students, err := engine.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = engine.GetBook(ctx, 4711)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	_, err = engine.GetStudent(ctx, 4711)
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

func testCatalogRejectsInvalidInput(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()

	_, err := engine.AddBook(ctx, "", "Nobody")
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)

	_, err = engine.AddStudent(ctx, "Bob", "not-an-email")
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)

	books, err := engine.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func testDuplicateEmail(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")

	_, err := engine.AddStudent(ctx, "Alice Clone", " ALICE@example.org")
	assert.ErrorIs(t, err, circulation.ErrDuplicateKey)

	students, err := engine.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1, "the store must be unchanged")
	assert.Equal(t, "Alice Smith", students[0].Name)
}

func testLedgerLifecycle(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")

	entry, err := engine.CreateEntry(ctx, student.ID, book.ID, issueDay.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Positive(t, entry.ID)
	assert.Equal(t, student.ID, entry.StudentID)
	assert.Equal(t, book.ID, entry.BookID)
	assert.Equal(t, issueDay, entry.IssueDate)
	assert.True(t, entry.IsOpen())

	open, found, err := engine.OpenEntryForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry, open)

	openForStudent, err := engine.OpenEntriesForStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []circulation.IssueLog{entry}, openForStudent)

	closed, err := engine.CloseEntry(ctx, entry.ID, returnDay)
	require.NoError(t, err)
	assert.Equal(t, returnDay, closed.ReturnDate)
	assert.Equal(t, issueDay, closed.IssueDate)

	_, err = engine.CloseEntry(ctx, entry.ID, returnDay.AddDate(0, 0, 3))
	assert.ErrorIs(t, err, circulation.ErrAlreadyClosed)

	reloaded, err := engine.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, returnDay, reloaded.ReturnDate, "the failed close must not change the return date")

	_, found, err = engine.OpenEntryForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = engine.CloseEntry(ctx, 4711, returnDay)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	_, err = engine.GetEntry(ctx, 4711)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []circulation.IssueLog{reloaded}, entries)
}

func testAtMostOneOpenEntryPerBook(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	alice := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")
	bob := GivenStudent(ctx, t, engine, "Bob Johnson", "bob@example.org")

	_, err := engine.CreateEntry(ctx, alice.ID, book.ID, issueDay)
	require.NoError(t, err)

	_, err = engine.CreateEntry(ctx, bob.ID, book.ID, issueDay)
	assert.ErrorIs(t, err, circulation.ErrUnavailable)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testLedgerReferencesExistingRecords(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")

	_, err := engine.CreateEntry(ctx, 4711, book.ID, issueDay)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	_, err = engine.CreateEntry(ctx, student.ID, 4711, issueDay)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testLedgerRejectsZeroDates(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")

	_, err := engine.CreateEntry(ctx, student.ID, book.ID, time.Time{})
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entry, err := engine.CreateEntry(ctx, student.ID, book.ID, issueDay)
	require.NoError(t, err)

	_, err = engine.CloseEntry(ctx, entry.ID, time.Time{})
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)

	reloaded, err := engine.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsOpen(), "a zero return date must not close the entry")

	_, found, err := engine.OpenEntryForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, found)
}

func testRemoveBook(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")
	entry := GivenIssued(ctx, t, engine, student.ID, book.ID)

	err := engine.RemoveBook(ctx, book.ID)
	assert.ErrorIs(t, err, circulation.ErrConflict)

	_, err = engine.GetBook(ctx, book.ID)
	require.NoError(t, err, "the blocked removal must leave the book in place")

	GivenReturned(ctx, t, engine, entry)

	err = engine.RemoveBook(ctx, book.ID)
	require.NoError(t, err)

	_, err = engine.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	err = engine.RemoveBook(ctx, book.ID)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "issue logs are never deleted")
}

func testRemoveStudent(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")
	entry := GivenIssued(ctx, t, engine, student.ID, book.ID)

	err := engine.RemoveStudent(ctx, student.ID)
	assert.ErrorIs(t, err, circulation.ErrConflict)

	GivenReturned(ctx, t, engine, entry)

	err = engine.RemoveStudent(ctx, student.ID)
	require.NoError(t, err)

	_, err = engine.GetStudent(ctx, student.ID)
	assert.ErrorIs(t, err, circulation.ErrNotFound)

	_, err = engine.AddStudent(ctx, "Alice Smith", "alice@example.org")
	assert.NoError(t, err, "the email of a removed student can be registered again")
}

func testSetBookAvailable(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")

	require.NoError(t, engine.SetBookAvailable(ctx, book.ID, false))

	reloaded, err := engine.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Available)

	err = engine.SetBookAvailable(ctx, 4711, true)
	assert.ErrorIs(t, err, circulation.ErrNotFound)
}

func testFailedUnitOfWork(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")
	student := GivenStudent(ctx, t, engine, "Alice Smith", "alice@example.org")
	errBoom := errors.New("boom")

	err := engine.Atomically(ctx, func(tx circulation.Tx) error {
		if _, err := tx.CreateEntry(ctx, student.ID, book.ID, issueDay); err != nil {
			return err
		}

		if err := tx.SetBookAvailable(ctx, book.ID, false); err != nil {
			return err
		}

		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	reloaded, err := engine.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Available)

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testConcurrentUnitsOfWork(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()
	book := GivenBook(ctx, t, engine, "Clean Code")

	const contenders = 8
	students := make([]circulation.Student, contenders)
	for i := range contenders {
		students[i] = GivenStudent(ctx, t, engine, "Student", "student"+string(rune('a'+i))+"@example.org")
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)

	for i := range contenders {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i] = engine.Atomically(ctx, func(tx circulation.Tx) error {
				current, err := tx.GetBook(ctx, book.ID)
				if err != nil {
					return err
				}

				if !current.Available {
					return circulation.ErrUnavailable
				}

				if _, err = tx.CreateEntry(ctx, students[i].ID, book.ID, issueDay); err != nil {
					return err
				}

				return tx.SetBookAvailable(ctx, book.ID, false)
			})
		}(i)
	}

	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}

		assert.True(
			t,
			errors.Is(err, circulation.ErrUnavailable) || errors.Is(err, circulation.ErrConcurrencyConflict),
			"unexpected error: %v", err,
		)
	}

	assert.Equal(t, 1, succeeded, "exactly one contender may issue the book")

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func testAdmins(t *testing.T, engine circulation.Engine) {
	ctx := context.Background()

	admin, err := engine.AddAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Positive(t, admin.ID)

	_, err = engine.AddAdmin(ctx, "admin", "other")
	assert.ErrorIs(t, err, circulation.ErrDuplicateKey)

	authenticated, err := engine.AuthenticateAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, authenticated.ID)

	_, err = engine.AuthenticateAdmin(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, circulation.ErrInvalidCredentials)

	_, err = engine.AuthenticateAdmin(ctx, "admin", "admin124")
	assert.ErrorIs(t, err, circulation.ErrInvalidCredentials, "same length, last byte differs")

	_, err = engine.AuthenticateAdmin(ctx, "admin", "")
	assert.ErrorIs(t, err, circulation.ErrInvalidCredentials)

	_, err = engine.AuthenticateAdmin(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, circulation.ErrInvalidCredentials)
}
