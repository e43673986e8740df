package sqlengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/testutil/enginetest"
	"github.com/AntonStoeckl/library-circulation-go/testutil/postgreswrapper"
)

func Test_PostgresStore_Contract(t *testing.T) {
	wrapper := postgreswrapper.CreateWrapper(t)
	defer wrapper.Close()

	enginetest.RunContract(t, func(t *testing.T) circulation.Engine {
		postgreswrapper.CleanUp(t, wrapper)
		return wrapper.GetStore()
	})
}

func Test_PostgresStore_DatesSurviveTheRoundTrip(t *testing.T) {
	// setup
	wrapper := postgreswrapper.CreateWrapper(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()
	ctx := context.Background()
	book := enginetest.GivenBook(ctx, t, store, "Clean Code")
	student := enginetest.GivenStudent(ctx, t, store, "Alice Smith", "alice@example.org")

	// act
	entry := enginetest.GivenIssued(ctx, t, store, student.ID, book.ID)
	enginetest.GivenReturned(ctx, t, store, entry)

	// assert
	reloaded, err := store.GetEntry(circulation.WithEventualConsistency(ctx), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", reloaded.IssueDateString())
	assert.Equal(t, "2026-10-25", reloaded.ReturnDateString())
}
