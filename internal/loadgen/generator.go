// Package loadgen drives concurrent issue and return traffic through the command handlers.
//
// It exists to exercise the unit-of-work isolation of an engine: many workers race for the
// same books, and afterwards the ledger and the availability flags must still agree.
package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

const (
	defaultWorkers      = 4
	defaultOperations   = 100
	defaultReturnWeight = 40
	operationTimeout    = 5 * time.Second

	logMsgStarted   = "load generator started"
	logMsgFinished  = "load generator finished"
	logMsgOpFailed  = "load generator operation failed"
	logAttrWorkers  = "workers"
	logAttrOps      = "operations"
	logAttrIssued   = "issued"
	logAttrReturned = "returned"
	logAttrRejected = "rejected"
	logAttrErrors   = "errors"
	logAttrError    = "error"
)

// Engine defines the reads the Generator needs to pick its targets.
type Engine interface {
	ListBooks(ctx context.Context) ([]circulation.Book, error)
	ListStudents(ctx context.Context) ([]circulation.Student, error)
	Entries(ctx context.Context) ([]circulation.IssueLog, error)
}

// Config controls one run.
type Config struct {
	Workers    int
	Operations int

	// ReturnWeight is the share of operations, in percent, that return an open issue log.
	ReturnWeight int

	// Seed makes the sequence of picks repeatable; 0 picks a random seed.
	Seed uint64
}

// Stats counts the outcomes of one run.
type Stats struct {
	Operations int64         `json:"operations"`
	Issued     int64         `json:"issued"`
	Returned   int64         `json:"returned"`
	Rejected   int64         `json:"rejected"`
	Errors     int64         `json:"errors"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Generator issues and returns random books for random students.
type Generator struct {
	engine     Engine
	issueBook  shell.CommandHandler[issuebook.Command]
	returnBook shell.CommandHandler[returnbook.Command]
	logger     circulation.Logger
	now        func() time.Time
}

// Option defines a functional option for configuring a Generator.
type Option func(*Generator)

// WithLogger sets the logger for progress and failures.
func WithLogger(logger circulation.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithClock sets the time source for issue and return dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(
	engine Engine,
	issueBook shell.CommandHandler[issuebook.Command],
	returnBook shell.CommandHandler[returnbook.Command],
	options ...Option,
) *Generator {
	g := &Generator{
		engine:     engine,
		issueBook:  issueBook,
		returnBook: returnBook,
		now:        time.Now,
	}

	for _, option := range options {
		option(g)
	}

	return g
}

// DefaultConfig returns a small run suitable for a smoke test.
func DefaultConfig() Config {
	return Config{Workers: defaultWorkers, Operations: defaultOperations, ReturnWeight: defaultReturnWeight}
}

// Validate checks the bounds of a Config.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", circulation.ErrInvalidInput)
	case c.Operations < 1:
		return fmt.Errorf("%w: operations must be at least 1", circulation.ErrInvalidInput)
	case c.ReturnWeight < 0 || c.ReturnWeight > 100:
		return fmt.Errorf("%w: return weight must be between 0 and 100", circulation.ErrInvalidInput)
	}

	return nil
}

// Run executes cfg.Operations operations on cfg.Workers goroutines and waits for all of them.
// Rejections such as ErrUnavailable are expected under contention and only counted.
func (g *Generator) Run(ctx context.Context, cfg Config) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	targets, err := g.loadTargets(ctx)
	if err != nil {
		return Stats{}, err
	}

	g.logInfo(logMsgStarted, logAttrWorkers, cfg.Workers, logAttrOps, cfg.Operations)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	var (
		stats counters
		wg    sync.WaitGroup
		jobs  = make(chan struct{})
		start = time.Now()
	)

	for worker := range cfg.Workers {
		wg.Add(1)

		go func(rng *rand.Rand) {
			defer wg.Done()

			for range jobs {
				g.execute(ctx, rng, targets, cfg.ReturnWeight, &stats)
			}
		}(rand.New(rand.NewPCG(seed, uint64(worker))))
	}

feed:
	for range cfg.Operations {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- struct{}{}:
		}
	}

	close(jobs)
	wg.Wait()

	result := stats.snapshot(time.Since(start))

	g.logInfo(logMsgFinished,
		logAttrOps, result.Operations,
		logAttrIssued, result.Issued,
		logAttrReturned, result.Returned,
		logAttrRejected, result.Rejected,
		logAttrErrors, result.Errors,
	)

	return result, ctx.Err()
}

func (g *Generator) loadTargets(ctx context.Context) (*targets, error) {
	books, err := g.engine.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	students, err := g.engine.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	if len(books) == 0 || len(students) == 0 {
		return nil, fmt.Errorf("%w: load generation needs at least one book and one student", circulation.ErrInvalidInput)
	}

	entries, err := g.engine.Entries(ctx)
	if err != nil {
		return nil, err
	}

	t := &targets{open: make(map[int64]struct{})}

	for _, book := range books {
		t.bookIDs = append(t.bookIDs, book.ID)
	}

	for _, student := range students {
		t.studentIDs = append(t.studentIDs, student.ID)
	}

	for _, entry := range entries {
		if entry.IsOpen() {
			t.open[entry.ID] = struct{}{}
		}
	}

	return t, nil
}

func (g *Generator) execute(ctx context.Context, rng *rand.Rand, t *targets, returnWeight int, stats *counters) {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	stats.operations.Add(1)

	if logID, ok := t.pickOpen(rng); ok && rng.IntN(100) < returnWeight {
		_, err := g.returnBook.Handle(opCtx, returnbook.BuildCommand(logID, g.now()))
		if err == nil {
			t.closed(logID)
			stats.returned.Add(1)
			return
		}

		g.count(stats, err)
		return
	}

	studentID := t.studentIDs[rng.IntN(len(t.studentIDs))]
	bookID := t.bookIDs[rng.IntN(len(t.bookIDs))]

	result, err := g.issueBook.Handle(opCtx, issuebook.BuildCommand(studentID, bookID, g.now()))
	if err == nil {
		t.opened(result.RecordID)
		stats.issued.Add(1)
		return
	}

	g.count(stats, err)
}

func (g *Generator) count(stats *counters, err error) {
	if shell.ClassifyError(err) == shell.StatusRejected {
		stats.rejected.Add(1)
		return
	}

	stats.errors.Add(1)

	if g.logger != nil {
		g.logger.Warn(logMsgOpFailed, logAttrError, err.Error())
	}
}

func (g *Generator) logInfo(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}

// targets are the ids the workers pick from. Open log ids change while the run is going.
type targets struct {
	bookIDs    []int64
	studentIDs []int64

	mu   sync.Mutex
	open map[int64]struct{}
}

func (t *targets) pickOpen(rng *rand.Rand) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.open) == 0 {
		return 0, false
	}

	skip := rng.IntN(len(t.open))
	for logID := range t.open {
		if skip == 0 {
			return logID, true
		}
		skip--
	}

	return 0, false
}

func (t *targets) opened(logID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open[logID] = struct{}{}
}

func (t *targets) closed(logID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.open, logID)
}

type counters struct {
	operations atomic.Int64
	issued     atomic.Int64
	returned   atomic.Int64
	rejected   atomic.Int64
	errors     atomic.Int64
}

func (c *counters) snapshot(elapsed time.Duration) Stats {
	return Stats{
		Operations: c.operations.Load(),
		Issued:     c.issued.Load(),
		Returned:   c.returned.Load(),
		Rejected:   c.rejected.Load(),
		Errors:     c.errors.Load(),
		Elapsed:    elapsed,
	}
}
