package audit

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

const (
	logMsgAuditCompleted   = "consistency audit completed"
	logMsgAuditFailed      = "consistency audit failed"
	logMsgInconsistentBook = "inconsistent book"
	logAttrChecked         = "checked_books"
	logAttrFindings        = "findings"
	logAttrBookID          = "book_id"
	logAttrLogID           = "log_id"
	logAttrProblem         = "problem"
	logAttrError           = "error"

	metricInconsistencies = "circulation_audit_inconsistencies"
	metricAuditRuns       = "circulation_audit_runs_total"
	labelStatus           = "status"
)

// Problems found by the audit.
const (
	ProblemFlaggedButOnLoan     = "available but has an open issue log"
	ProblemUnavailableNotOnLoan = "unavailable without an open issue log"
	ProblemOpenLogUnknownBook   = "open issue log references an unknown book"
)

// Engine defines what the Auditor needs: both reads happen inside one unit of work,
// so an issue or return committing in between cannot show up as a finding.
type Engine interface {
	Atomically(ctx context.Context, fn circulation.TxFunc) error
}

// Finding is one inconsistency. LogID is 0 when no open issue log is involved.
type Finding struct {
	BookID  int64  `json:"book_id"`
	LogID   int64  `json:"log_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Problem string `json:"problem"`
}

// Report is the outcome of one audit run.
type Report struct {
	CheckedBooks int       `json:"checked_books"`
	Findings     []Finding `json:"findings"`
	RanAt        time.Time `json:"ran_at"`
}

// Consistent reports whether the run found nothing.
func (r Report) Consistent() bool {
	return len(r.Findings) == 0
}

// Auditor compares the availability flags of all books with the open issue logs.
type Auditor struct {
	engine  Engine
	logger  circulation.Logger
	metrics circulation.MetricsCollector
	now     func() time.Time
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger logs each run at info and each finding at warn.
func WithLogger(logger circulation.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// WithMetrics records the number of findings as a gauge and counts runs.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(a *Auditor) {
		a.metrics = collector
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) {
		a.now = now
	}
}

// NewAuditor creates a new Auditor.
func NewAuditor(engine Engine, options ...Option) *Auditor {
	a := &Auditor{engine: engine, now: time.Now}

	for _, option := range options {
		option(a)
	}

	return a
}

// Run performs one audit.
func (a *Auditor) Run(ctx context.Context) (Report, error) {
	ctx = circulation.WithStrongConsistency(ctx)

	var (
		books   []circulation.Book
		entries []circulation.IssueLog
	)

	_, err := shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return a.engine.Atomically(ctx, func(tx circulation.Tx) error {
			var err error

			if books, err = tx.ListBooks(ctx); err != nil {
				return err
			}

			entries, err = tx.Entries(ctx)

			return err
		})
	})
	if err != nil {
		a.recordRun("error")
		a.logError(err)

		return Report{}, err
	}

	report := Report{
		CheckedBooks: len(books),
		Findings:     Inspect(books, entries),
		RanAt:        a.now().UTC(),
	}

	a.recordRun("success")
	a.report(report)

	return report, nil
}

// Inspect returns the findings for books and entries, ordered by book id. It is a pure function.
func Inspect(books []circulation.Book, entries []circulation.IssueLog) []Finding {
	openLogs := make(map[int64]int64)
	for _, entry := range entries {
		if entry.IsOpen() {
			openLogs[entry.BookID] = entry.ID
		}
	}

	findings := make([]Finding, 0)
	known := make(map[int64]struct{}, len(books))

	for _, book := range books {
		known[book.ID] = struct{}{}
		logID, onLoan := openLogs[book.ID]

		switch {
		case book.Available && onLoan:
			findings = append(findings, Finding{BookID: book.ID, LogID: logID, Title: book.Title, Problem: ProblemFlaggedButOnLoan})
		case !book.Available && !onLoan:
			findings = append(findings, Finding{BookID: book.ID, Title: book.Title, Problem: ProblemUnavailableNotOnLoan})
		}
	}

	for _, entry := range entries {
		if _, ok := known[entry.BookID]; !ok && entry.IsOpen() {
			findings = append(findings, Finding{BookID: entry.BookID, LogID: entry.ID, Problem: ProblemOpenLogUnknownBook})
		}
	}

	slices.SortFunc(findings, func(a, b Finding) int {
		return cmp.Or(cmp.Compare(a.BookID, b.BookID), cmp.Compare(a.LogID, b.LogID))
	})

	return findings
}

// Schedule registers the audit on c with a standard 5-field cron spec or a descriptor like @daily.
func (a *Auditor) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		_, _ = a.Run(ctx)
	})
}

func (a *Auditor) report(report Report) {
	if a.metrics != nil {
		a.metrics.RecordValue(metricInconsistencies, float64(len(report.Findings)), nil)
	}

	if a.logger == nil {
		return
	}

	for _, finding := range report.Findings {
		a.logger.Warn(logMsgInconsistentBook,
			logAttrBookID, finding.BookID,
			logAttrLogID, finding.LogID,
			logAttrProblem, finding.Problem,
		)
	}

	a.logger.Info(logMsgAuditCompleted, logAttrChecked, report.CheckedBooks, logAttrFindings, len(report.Findings))
}

func (a *Auditor) recordRun(status string) {
	if a.metrics != nil {
		a.metrics.IncrementCounter(metricAuditRuns, map[string]string{labelStatus: status})
	}
}

func (a *Auditor) logError(err error) {
	if a.logger != nil {
		a.logger.Error(logMsgAuditFailed, logAttrError, err.Error())
	}
}
