package loanhistory

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

// QueryHandler lists the loan history.
type QueryHandler struct {
	engine Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine Engine) QueryHandler {
	return QueryHandler{engine: engine}
}

// Handle executes the query workflow: Read -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanHistory, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	entries, err := h.engine.Entries(ctx)
	if err != nil {
		return LoanHistory{}, err
	}

	books, err := h.engine.ListBooks(ctx)
	if err != nil {
		return LoanHistory{}, err
	}

	students, err := h.engine.ListStudents(ctx)
	if err != nil {
		return LoanHistory{}, err
	}

	return Project(entries, books, students, query), nil
}
