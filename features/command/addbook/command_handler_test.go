package addbook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := addbook.NewCommandHandler(engine)

		// act
		result, err := handler.Handle(ctx, addbook.BuildCommand("  The Left Hand of Darkness ", "Ursula K. Le Guin"))

		// assert
		require.NoError(t, err)

		book, err := engine.GetBook(ctx, result.RecordID)
		require.NoError(t, err)
		assert.Equal(t, "The Left Hand of Darkness", book.Title)
		assert.Equal(t, "Ursula K. Le Guin", book.Author)
		assert.True(t, book.Available)
	})
}

func Test_CommandHandler_Handle_Error_InvalidInput(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := addbook.NewCommandHandler(engine)

		// act
		_, err := handler.Handle(ctx, addbook.BuildCommand("Dune", "   "))

		// assert
		assert.ErrorIs(t, err, circulation.ErrInvalidInput)

		books, err := engine.ListBooks(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}
