package issuebook_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

var issueDay = time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

		// act
		result, err := handler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, issueDay))

		// assert
		require.NoError(t, err)
		assert.False(t, result.Idempotent)
		assert.Equal(t, 1, result.RetryAttempts)

		entry, err := engine.GetEntry(ctx, result.RecordID)
		require.NoError(t, err)
		assert.Equal(t, student.ID, entry.StudentID)
		assert.Equal(t, book.ID, entry.BookID)
		assert.Equal(t, "2026-10-18", entry.IssueDateString())
		assert.True(t, entry.IsOpen())

		book, err = engine.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.False(t, book.Available)
	})
}

func Test_CommandHandler_Handle_Error_BookAlreadyIssued(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		bob := GivenStudent(ctx, t, engine, "Bob", "bob@example.org")

		_, err := handler.Handle(ctx, issuebook.BuildCommand(ada.ID, book.ID, issueDay))
		require.NoError(t, err)

		// act
		result, err := handler.Handle(ctx, issuebook.BuildCommand(bob.ID, book.ID, issueDay))

		// assert
		assert.ErrorIs(t, err, circulation.ErrUnavailable)
		assert.Equal(t, 1, result.RetryAttempts, "business errors must not be retried")
		assertEntryCount(ctx, t, engine, 1)
	})
}

func Test_CommandHandler_Handle_Error_NotFound(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

		// act
		_, unknownBookErr := handler.Handle(ctx, issuebook.BuildCommand(student.ID, 999, issueDay))
		_, unknownStudentErr := handler.Handle(ctx, issuebook.BuildCommand(999, book.ID, issueDay))

		// assert
		assert.ErrorIs(t, unknownBookErr, circulation.ErrNotFound)
		assert.ErrorIs(t, unknownStudentErr, circulation.ErrNotFound)
		assertEntryCount(ctx, t, engine, 0)

		book, err := engine.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.True(t, book.Available, "a rejected issue must leave the book available")
	})
}

func Test_CommandHandler_Handle_Error_CheckoutLimitReached(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine, issuebook.WithMaxOpenIssuesPerStudent(2))
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		first := GivenBook(ctx, t, engine, "Dune")
		second := GivenBook(ctx, t, engine, "Emma")
		third := GivenBook(ctx, t, engine, "Ulysses")

		for _, book := range []circulation.Book{first, second} {
			_, err := handler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, issueDay))
			require.NoError(t, err)
		}

		// act
		_, err := handler.Handle(ctx, issuebook.BuildCommand(student.ID, third.ID, issueDay))

		// assert
		assert.ErrorIs(t, err, circulation.ErrCheckoutLimitReached)
		assertEntryCount(ctx, t, engine, 2)
	})
}

func Test_CommandHandler_Handle_Error_InconsistentState(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		require.NoError(t, engine.SetBookAvailable(ctx, book.ID, false))

		// act
		_, err := handler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, issueDay))

		// assert
		assert.ErrorIs(t, err, circulation.ErrInconsistentState)
		assertEntryCount(ctx, t, engine, 0)
	})
}

func Test_CommandHandler_Handle_ConcurrentIssuesOfOneBook(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine, issuebook.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))
		book := GivenBook(ctx, t, engine, "Dune")

		const students = 8
		studentIDs := make([]int64, students)
		for i := range students {
			studentIDs[i] = GivenStudent(ctx, t, engine, "Student", "student"+string(rune('a'+i))+"@example.org").ID
		}

		// act
		var wg sync.WaitGroup
		errs := make([]error, students)

		for i, studentID := range studentIDs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = handler.Handle(ctx, issuebook.BuildCommand(studentID, book.ID, issueDay))
			}()
		}

		wg.Wait()

		// assert
		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, circulation.ErrUnavailable), errors.Is(err, circulation.ErrConcurrencyConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, 1, succeeded, "exactly one issue must win")
		assertEntryCount(ctx, t, engine, 1)
	})
}

func Test_CommandHandler_Handle_CanceledContext(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

		canceledCtx, cancel := context.WithCancel(ctx)
		cancel()

		// act
		_, err := handler.Handle(canceledCtx, issuebook.BuildCommand(student.ID, book.ID, issueDay))

		// assert
		assert.ErrorIs(t, err, context.Canceled)
		assertEntryCount(ctx, t, engine, 0)
	})
}

func assertEntryCount(ctx context.Context, t *testing.T, engine circulation.Engine, expected int) {
	t.Helper()

	entries, err := engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, expected)
}

func Test_CommandHandler_Handle_Error_ZeroIssueDate(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := issuebook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

		// act
		_, err := handler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, time.Time{}))

		// assert
		assert.ErrorIs(t, err, circulation.ErrInvalidInput)
		assertEntryCount(ctx, t, engine, 0)

		book, err = engine.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.True(t, book.Available)
	})
}
