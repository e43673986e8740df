package exportissuelogs

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Engine defines the interface needed by the QueryHandler.
type Engine interface {
	Entries(ctx context.Context) ([]circulation.IssueLog, error)
	ListBooks(ctx context.Context) ([]circulation.Book, error)
	ListStudents(ctx context.Context) ([]circulation.Student, error)
}

// QueryHandler reads the ledger and projects it into an Export.
// Observability is added by wrapping it with observable.QueryWrapper.
type QueryHandler struct {
	engine Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine Engine) QueryHandler {
	return QueryHandler{engine: engine}
}

// Handle executes the query workflow: Read -> Project.
// The export tolerates replica lag, so it reads with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Export, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	entries, err := h.engine.Entries(ctx)
	if err != nil {
		return Export{}, err
	}

	var books []circulation.Book
	var students []circulation.Student

	if query.WithNames {
		if books, err = h.engine.ListBooks(ctx); err != nil {
			return Export{}, err
		}

		if students, err = h.engine.ListStudents(ctx); err != nil {
			return Export{}, err
		}
	}

	return Project(entries, books, students, query), nil
}
