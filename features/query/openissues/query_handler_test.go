package openissues_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/query/openissues"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_QueryHandler_Handle(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := openissues.NewQueryHandler(engine)

		dune := GivenBook(ctx, t, engine, "Dune")
		emma := GivenBook(ctx, t, engine, "Emma")
		ulysses := GivenBook(ctx, t, engine, "Ulysses")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		bob := GivenStudent(ctx, t, engine, "Bob", "bob@example.org")

		GivenReturned(ctx, t, engine, GivenIssued(ctx, t, engine, ada.ID, dune.ID))
		adaEmma := GivenIssued(ctx, t, engine, ada.ID, emma.ID)
		bobUlysses := GivenIssued(ctx, t, engine, bob.ID, ulysses.ID)

		// act
		all, err := handler.Handle(ctx, openissues.BuildQuery(0))
		require.NoError(t, err)

		onlyBob, err := handler.Handle(ctx, openissues.BuildQuery(bob.ID))
		require.NoError(t, err)

		// assert
		require.Equal(t, 2, all.Count)
		assert.Equal(t, adaEmma.ID, all.Issues[0].LogID)
		assert.Equal(t, "Ada", all.Issues[0].StudentName)
		assert.Equal(t, "Emma", all.Issues[0].BookTitle)
		assert.Equal(t, "2026-10-18", all.Issues[0].IssuedOn)
		assert.Equal(t, bobUlysses.ID, all.Issues[1].LogID)

		require.Equal(t, 1, onlyBob.Count)
		assert.Equal(t, "Ulysses", onlyBob.Issues[0].BookTitle)
	})
}

func Test_QueryHandler_Handle_NothingOnLoan(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// act
		result, err := openissues.NewQueryHandler(engine).Handle(context.Background(), openissues.BuildQuery(0))

		// assert
		require.NoError(t, err)
		assert.Equal(t, 0, result.Count)
		assert.NotNil(t, result.Issues)
	})
}
