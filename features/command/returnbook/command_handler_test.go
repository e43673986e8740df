package returnbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

var (
	issueDay  = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	returnDay = time.Date(2026, 10, 25, 16, 45, 0, 0, time.UTC)
)

func Test_CommandHandler_Handle_IssueThenReturn(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		issueHandler := issuebook.NewCommandHandler(engine)
		returnHandler := returnbook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

		issued, err := issueHandler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, issueDay))
		require.NoError(t, err)

		// act
		result, err := returnHandler.Handle(ctx, returnbook.BuildCommand(issued.RecordID, returnDay))

		// assert
		require.NoError(t, err)
		assert.Equal(t, issued.RecordID, result.RecordID)

		entry, err := engine.GetEntry(ctx, issued.RecordID)
		require.NoError(t, err)
		assert.Equal(t, student.ID, entry.StudentID)
		assert.Equal(t, book.ID, entry.BookID)
		assert.Equal(t, "2026-10-18", entry.IssueDateString())
		assert.Equal(t, "2026-10-25", entry.ReturnDateString())

		book, err = engine.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.True(t, book.Available)

		entries, err := engine.Entries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "issue then return must leave exactly one closed entry")
	})
}

func Test_CommandHandler_Handle_Error_ReturnTwice(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := returnbook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		entry := GivenIssued(ctx, t, engine, student.ID, book.ID)

		_, err := handler.Handle(ctx, returnbook.BuildCommand(entry.ID, returnDay))
		require.NoError(t, err)

		// act
		result, err := handler.Handle(ctx, returnbook.BuildCommand(entry.ID, returnDay.AddDate(0, 0, 3)))

		// assert
		assert.ErrorIs(t, err, circulation.ErrAlreadyClosed)
		assert.Equal(t, 1, result.RetryAttempts)

		entry, err = engine.GetEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-10-25", entry.ReturnDateString(), "the first return date must be kept")
	})
}

func Test_CommandHandler_Handle_Error_UnknownLog(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		handler := returnbook.NewCommandHandler(engine)

		// act
		_, err := handler.Handle(context.Background(), returnbook.BuildCommand(42, returnDay))

		// assert
		assert.ErrorIs(t, err, circulation.ErrNotFound)
	})
}

func Test_CommandHandler_Handle_Error_InconsistentState(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := returnbook.NewCommandHandler(engine)
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		entry := GivenIssued(ctx, t, engine, student.ID, book.ID)
		require.NoError(t, engine.SetBookAvailable(ctx, book.ID, true))

		// act
		_, err := handler.Handle(ctx, returnbook.BuildCommand(entry.ID, returnDay))

		// assert
		assert.ErrorIs(t, err, circulation.ErrInconsistentState)

		entry, err = engine.GetEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.True(t, entry.IsOpen(), "a rejected return must leave the entry open")
	})
}

func Test_CommandHandler_Handle_Error_InvalidReturnDate(t *testing.T) {
	testCases := []struct {
		name       string
		returnedAt time.Time
	}{
		{name: "zero return date", returnedAt: time.Time{}},
		{name: "return date before the issue date", returnedAt: issueDay.AddDate(0, 0, -7)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
				// setup
				ctx := context.Background()
				issueHandler := issuebook.NewCommandHandler(engine)
				returnHandler := returnbook.NewCommandHandler(engine)
				book := GivenBook(ctx, t, engine, "Dune")
				student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")

				issued, err := issueHandler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, issueDay))
				require.NoError(t, err)

				// act
				_, err = returnHandler.Handle(ctx, returnbook.BuildCommand(issued.RecordID, tc.returnedAt))

				// assert
				assert.ErrorIs(t, err, circulation.ErrInvalidInput)

				entry, err := engine.GetEntry(ctx, issued.RecordID)
				require.NoError(t, err)
				assert.True(t, entry.IsOpen(), "a rejected return must leave the issue log open")
				assert.Empty(t, entry.ReturnDateString())

				book, err = engine.GetBook(ctx, book.ID)
				require.NoError(t, err)
				assert.False(t, book.Available, "a rejected return must leave the book unavailable")
			})
		})
	}
}
