package app_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/features/query/librarystats"
	"github.com/AntonStoeckl/library-circulation-go/internal/app"
	"github.com/AntonStoeckl/library-circulation-go/internal/config"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_HandlerBundle_WithObservability(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := testengines.Memory(t)
	logs := testdoubles.NewContextualLoggerSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()

	bundle, err := app.NewHandlerBundle(engine, 1, &config.Observability{
		Logger:           slog.Default(),
		ContextualLogger: logs,
		Metrics:          metrics,
		Tracing:          tracing,
	})
	require.NoError(t, err)

	book, err := bundle.AddBook.Handle(ctx, addbook.BuildCommand("Dune", "Frank Herbert"))
	require.NoError(t, err)
	other, err := bundle.AddBook.Handle(ctx, addbook.BuildCommand("Emma", "Jane Austen"))
	require.NoError(t, err)
	student, err := bundle.RegisterStudent.Handle(ctx, registerstudent.BuildCommand("Ada", "ada@example.org"))
	require.NoError(t, err)

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	_, err = bundle.IssueBook.Handle(ctx, issuebook.BuildCommand(student.RecordID, book.RecordID, day))
	require.NoError(t, err)

	// act
	_, limitErr := bundle.IssueBook.Handle(ctx, issuebook.BuildCommand(student.RecordID, other.RecordID, day))
	stats, statsErr := bundle.LibraryStats.Handle(ctx, librarystats.BuildQuery())

	// assert
	assert.ErrorIs(t, limitErr, circulation.ErrCheckoutLimitReached)
	require.NoError(t, statsErr)
	assert.Equal(t, 1, stats.OpenIssues)

	assert.True(t, logs.HasRecord("warn", shell.LogMsgCommandRejected))
	assert.True(t, metrics.Has(shell.CommandHandlerCallsMetric, map[string]string{shell.LogAttrCommandType: "IssueBook", shell.LogAttrStatus: shell.StatusRejected}))
	assert.NotEmpty(t, tracing.FinishedSpans(shell.SpanNameCommandHandle))
}

func Test_HandlerBundle_WithoutObservability(t *testing.T) {
	// setup
	engine := testengines.Memory(t)

	// act
	bundle, err := app.NewHandlerBundle(engine, 0, nil)

	// assert
	require.NoError(t, err)
	_, err = bundle.AddBook.Handle(context.Background(), addbook.BuildCommand("Dune", "Frank Herbert"))
	assert.NoError(t, err)
}
