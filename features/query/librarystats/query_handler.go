package librarystats

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Engine defines the interface needed by the QueryHandler.
type Engine interface {
	ListBooks(ctx context.Context) ([]circulation.Book, error)
	ListStudents(ctx context.Context) ([]circulation.Student, error)
	Entries(ctx context.Context) ([]circulation.IssueLog, error)
}

// QueryHandler computes LibraryStats.
type QueryHandler struct {
	engine Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine Engine) QueryHandler {
	return QueryHandler{engine: engine}
}

// Handle executes the query workflow: Read -> Project.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (LibraryStats, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	books, err := h.engine.ListBooks(ctx)
	if err != nil {
		return LibraryStats{}, err
	}

	students, err := h.engine.ListStudents(ctx)
	if err != nil {
		return LibraryStats{}, err
	}

	entries, err := h.engine.Entries(ctx)
	if err != nil {
		return LibraryStats{}, err
	}

	return Project(books, students, entries), nil
}
