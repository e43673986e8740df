package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/internal/audit"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/enginetest" //nolint:revive
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
	"github.com/AntonStoeckl/library-circulation-go/testutil/testengines"
)

func Test_Auditor_Run_Consistent(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		dune := GivenBook(ctx, t, engine, "Dune")
		emma := GivenBook(ctx, t, engine, "Emma")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		GivenReturned(ctx, t, engine, GivenIssued(ctx, t, engine, ada.ID, dune.ID))
		GivenIssued(ctx, t, engine, ada.ID, emma.ID)

		// act
		report, err := audit.NewAuditor(engine).Run(ctx)

		// assert
		require.NoError(t, err)
		assert.Equal(t, 2, report.CheckedBooks)
		assert.True(t, report.Consistent())
		assert.NotNil(t, report.Findings)
	})
}

func Test_Auditor_Run_ReportsMismatches(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		dune := GivenBook(ctx, t, engine, "Dune")
		emma := GivenBook(ctx, t, engine, "Emma")
		GivenBook(ctx, t, engine, "Ulysses")
		ada := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		duneLog := GivenIssued(ctx, t, engine, ada.ID, dune.ID)

		require.NoError(t, engine.SetBookAvailable(ctx, dune.ID, true))
		require.NoError(t, engine.SetBookAvailable(ctx, emma.ID, false))

		logs := testdoubles.NewLogHandlerSpy(false)
		metrics := testdoubles.NewMetricsCollectorSpy()
		ranAt := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

		auditor := audit.NewAuditor(engine,
			audit.WithLogger(slog.New(logs)),
			audit.WithMetrics(metrics),
			audit.WithClock(func() time.Time { return ranAt }),
		)

		// act
		report, err := auditor.Run(ctx)

		// assert
		require.NoError(t, err)
		assert.Equal(t, ranAt, report.RanAt)
		assert.Equal(t, []audit.Finding{
			{BookID: dune.ID, LogID: duneLog.ID, Title: "Dune", Problem: audit.ProblemFlaggedButOnLoan},
			{BookID: emma.ID, Title: "Emma", Problem: audit.ProblemUnavailableNotOnLoan},
		}, report.Findings)

		assert.True(t, logs.HasLog(slog.LevelWarn, "inconsistent book"))
		assert.True(t, logs.HasLogWithAttr("consistency audit completed", "findings"))
		assert.True(t, metrics.Has("circulation_audit_inconsistencies", nil))
		assert.True(t, metrics.Has("circulation_audit_runs_total", map[string]string{"status": "success"}))
	})
}

func Test_Inspect_OpenLogForUnknownBook(t *testing.T) {
	// setup
	entries := []circulation.IssueLog{
		{ID: 3, StudentID: 1, BookID: 99, IssueDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
		{ID: 4, StudentID: 1, BookID: 98, IssueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), ReturnDate: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)},
	}

	// act
	findings := audit.Inspect(nil, entries)

	// assert
	assert.Equal(t, []audit.Finding{{BookID: 99, LogID: 3, Problem: audit.ProblemOpenLogUnknownBook}}, findings)
}

type failingEngine struct{}

var errBroken = errors.New("broken")

func (failingEngine) Atomically(context.Context, circulation.TxFunc) error { return errBroken }

func Test_Auditor_Run_ReadFails(t *testing.T) {
	// setup
	logs := testdoubles.NewLogHandlerSpy(false)
	metrics := testdoubles.NewMetricsCollectorSpy()

	// act
	_, err := audit.NewAuditor(failingEngine{}, audit.WithLogger(slog.New(logs)), audit.WithMetrics(metrics)).Run(context.Background())

	// assert
	assert.ErrorIs(t, err, errBroken)
	assert.True(t, logs.HasLog(slog.LevelError, "consistency audit failed"))
	assert.True(t, metrics.Has("circulation_audit_runs_total", map[string]string{"status": "error"}))
}

func Test_Auditor_Schedule(t *testing.T) {
	// setup
	engine := testengines.Memory(t)
	c := cron.New()

	// act
	id, err := audit.NewAuditor(engine).Schedule(context.Background(), c, "@every 1h")
	_, invalidErr := audit.NewAuditor(engine).Schedule(context.Background(), c, "whenever")

	// assert
	require.NoError(t, err)
	assert.Equal(t, id, c.Entry(id).ID)
	assert.Error(t, invalidErr)
}

// interleavingEngine runs between after the unit of work has listed the books.
type interleavingEngine struct {
	circulation.Engine
	between func()
}

func (e interleavingEngine) Atomically(ctx context.Context, fn circulation.TxFunc) error {
	return e.Engine.Atomically(ctx, func(tx circulation.Tx) error {
		return fn(interleavingTx{Tx: tx, between: e.between})
	})
}

type interleavingTx struct {
	circulation.Tx
	between func()
}

func (tx interleavingTx) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	books, err := tx.Tx.ListBooks(ctx)
	tx.between()

	return books, err
}

func Test_Auditor_Run_IssueCommittedDuringTheRun(t *testing.T) {
	testengines.ForEach(t, func(t *testing.T, engine circulation.Engine) {
		// setup
		ctx := context.Background()
		book := GivenBook(ctx, t, engine, "Dune")
		student := GivenStudent(ctx, t, engine, "Ada", "ada@example.org")
		handler := issuebook.NewCommandHandler(engine)

		var (
			once     sync.Once
			wg       sync.WaitGroup
			issueErr error
		)

		interleaving := interleavingEngine{Engine: engine, between: func() {
			once.Do(func() {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, issueErr = handler.Handle(ctx, issuebook.BuildCommand(student.ID, book.ID, time.Now()))
				}()

				// give engines without a writer lock the chance to commit in the middle of the run
				time.Sleep(50 * time.Millisecond)
			})
		}}

		// act
		report, err := audit.NewAuditor(interleaving).Run(ctx)
		wg.Wait()

		// assert
		require.NoError(t, err)
		require.NoError(t, issueErr)
		assert.True(t, report.Consistent(), "findings: %v", report.Findings)

		after, err := audit.NewAuditor(engine).Run(ctx)
		require.NoError(t, err)
		assert.True(t, after.Consistent())

		book, err = engine.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.False(t, book.Available)
	})
}
