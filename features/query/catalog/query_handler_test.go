package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/query/catalog"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_QueryHandler_Handle(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		handler := catalog.NewQueryHandler(engine)

		dune := GivenBook(ctx, t, engine, "Dune")
		emma := GivenBook(ctx, t, engine, "Emma")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		GivenIssued(ctx, t, engine, ada.ID, dune.ID)

		// act
		all, err := handler.Handle(ctx, catalog.BuildQuery(false))
		require.NoError(t, err)

		available, err := handler.Handle(ctx, catalog.BuildQuery(true))
		require.NoError(t, err)

		// assert
		require.Len(t, all.Books, 2)
		assert.Equal(t, dune.ID, all.Books[0].ID)
		assert.False(t, all.Books[0].Available)

		require.Len(t, available.Books, 1)
		assert.Equal(t, emma.ID, available.Books[0].ID)

		require.Len(t, all.Students, 1)
		assert.Equal(t, "ada@example.org", all.Students[0].Email)
	})
}

func Test_QueryHandler_Handle_EmptyCatalog(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// act
		result, err := catalog.NewQueryHandler(engine).Handle(context.Background(), catalog.BuildQuery(false))

		// assert
		require.NoError(t, err)
		assert.NotNil(t, result.Books)
		assert.Empty(t, result.Books)
		assert.Empty(t, result.Students)
	})
}

func Test_QueryHandler_Handle_Search(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		dune := GivenBook(ctx, t, engine, "Dune")
		GivenBook(ctx, t, engine, "Emma")

		// act
		result, err := catalog.NewQueryHandler(engine).Handle(ctx, catalog.BuildQuery(false).WithSearch("du"))

		// assert
		require.NoError(t, err)
		require.Len(t, result.Books, 1)
		assert.Equal(t, dune.ID, result.Books[0].ID)
	})
}
