package loadgen_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/internal/app"
	"github.com/AntonStoeckl/library-circulation-go/internal/audit"
	"github.com/AntonStoeckl/library-circulation-go/internal/loadgen"
	"github.com/AntonStoeckl/library-circulation-go/testutil/enginetest"
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func newGenerator(t *testing.T, engine circulation.Engine) *loadgen.Generator {
	t.Helper()

	bundle, err := app.NewHandlerBundle(engine, 0, nil)
	require.NoError(t, err)

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	return loadgen.NewGenerator(engine, bundle.IssueBook, bundle.ReturnBook, loadgen.WithClock(func() time.Time { return day }))
}

func Test_Generator_Run_KeepsLedgerAndFlagsConsistent(t *testing.T) {
	engines := map[string]func(*testing.T) circulation.Engine{
		"memory": testengines.Memory,
		"sqlite": testengines.SQLite,
	}

	for name, newEngine := range engines {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			engine := newEngine(t)

			for i := range 3 {
				enginetest.GivenBook(ctx, t, engine, fmt.Sprintf("Book %d", i))
			}
			for i := range 4 {
				enginetest.GivenStudent(ctx, t, engine, fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@example.org", i))
			}

			generator := newGenerator(t, engine)

			// act
			stats, err := generator.Run(ctx, loadgen.Config{Workers: 8, Operations: 120, ReturnWeight: 50, Seed: 42})

			// assert
			require.NoError(t, err)
			assert.Equal(t, int64(120), stats.Operations)
			assert.Equal(t, stats.Operations, stats.Issued+stats.Returned+stats.Rejected+stats.Errors)
			assert.Zero(t, stats.Errors)
			assert.Positive(t, stats.Issued)

			books, err := engine.ListBooks(ctx)
			require.NoError(t, err)
			entries, err := engine.Entries(ctx)
			require.NoError(t, err)

			assert.Empty(t, audit.Inspect(books, entries))
			assert.Len(t, entries, int(stats.Issued))
		})
	}
}

func Test_Generator_Run_NeedsBooksAndStudents(t *testing.T) {
	// setup
	engine := testengines.Memory(t)
	generator := newGenerator(t, engine)

	// act
	_, err := generator.Run(context.Background(), loadgen.DefaultConfig())

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvalidInput)
}

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		config loadgen.Config
		valid  bool
	}{
		{name: "default", config: loadgen.DefaultConfig(), valid: true},
		{name: "no workers", config: loadgen.Config{Workers: 0, Operations: 1}},
		{name: "no operations", config: loadgen.Config{Workers: 1, Operations: 0}},
		{name: "weight above 100", config: loadgen.Config{Workers: 1, Operations: 1, ReturnWeight: 101}},
		{name: "only returns", config: loadgen.Config{Workers: 1, Operations: 1, ReturnWeight: 100}, valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()

			if tc.valid {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, circulation.ErrInvalidInput)
		})
	}
}

func Test_Generator_Run_StopsOnCanceledContext(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	engine := testengines.Memory(t)
	enginetest.GivenBook(ctx, t, engine, "Dune")
	enginetest.GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
	generator := newGenerator(t, engine)
	cancel()

	// act
	stats, err := generator.Run(ctx, loadgen.Config{Workers: 2, Operations: 1000})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, stats.Operations, int64(1000))
}
