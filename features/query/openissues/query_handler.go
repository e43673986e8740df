package openissues

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Engine defines the interface needed by the QueryHandler.
type Engine interface {
	Entries(ctx context.Context) ([]circulation.IssueLog, error)
	OpenEntriesForStudent(ctx context.Context, studentID int64) ([]circulation.IssueLog, error)
	ListBooks(ctx context.Context) ([]circulation.Book, error)
	ListStudents(ctx context.Context) ([]circulation.Student, error)
}

// QueryHandler lists open issue logs.
type QueryHandler struct {
	engine Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine Engine) QueryHandler {
	return QueryHandler{engine: engine}
}

// Handle executes the query workflow: Read -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OpenIssues, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	var entries []circulation.IssueLog
	var err error

	if query.StudentID != 0 {
		entries, err = h.engine.OpenEntriesForStudent(ctx, query.StudentID)
	} else {
		entries, err = h.engine.Entries(ctx)
	}

	if err != nil {
		return OpenIssues{}, err
	}

	books, err := h.engine.ListBooks(ctx)
	if err != nil {
		return OpenIssues{}, err
	}

	students, err := h.engine.ListStudents(ctx)
	if err != nil {
		return OpenIssues{}, err
	}

	return Project(entries, books, students, query), nil
}
