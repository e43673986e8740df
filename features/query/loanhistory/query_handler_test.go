package loanhistory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/query/loanhistory"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_QueryHandler_Handle(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := loanhistory.NewQueryHandler(engine)

		dune := GivenBook(ctx, t, engine, "Dune")
		emma := GivenBook(ctx, t, engine, "Emma")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		bob := GivenStudent(ctx, t, engine, "Bob", "bob@example.org")

		first := GivenIssued(ctx, t, engine, ada.ID, dune.ID)
		GivenReturned(ctx, t, engine, first)
		second := GivenIssued(ctx, t, engine, bob.ID, dune.ID)
		third := GivenIssued(ctx, t, engine, ada.ID, emma.ID)

		// act
		recent, err := handler.Handle(ctx, loanhistory.BuildQuery(0, 2))
		require.NoError(t, err)

		adaHistory, err := handler.Handle(ctx, loanhistory.BuildQuery(ada.ID, 0))
		require.NoError(t, err)

		// assert
		require.Equal(t, 2, recent.Count)
		assert.Equal(t, third.ID, recent.Loans[0].LogID)
		assert.Equal(t, second.ID, recent.Loans[1].LogID)
		assert.Equal(t, "Bob", recent.Loans[1].StudentName)

		require.Equal(t, 2, adaHistory.Count)
		assert.Equal(t, third.ID, adaHistory.Loans[0].LogID)
		assert.False(t, adaHistory.Loans[0].Returned)
		assert.Equal(t, first.ID, adaHistory.Loans[1].LogID)
		assert.True(t, adaHistory.Loans[1].Returned)
		assert.Equal(t, "Dune", adaHistory.Loans[1].BookTitle)
	})
}
