package app

import (
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removestudent"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
	"github.com/AntonStoeckl/library-circulation-go/features/query/catalog"
	"github.com/AntonStoeckl/library-circulation-go/features/query/exportissuelogs"
	"github.com/AntonStoeckl/library-circulation-go/features/query/librarystats"
	"github.com/AntonStoeckl/library-circulation-go/features/query/loanhistory"
	"github.com/AntonStoeckl/library-circulation-go/features/query/openissues"
	"github.com/AntonStoeckl/library-circulation-go/internal/config"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell/observable"
)

// HandlerBundle contains all command and query handlers, each wrapped with observability.
type HandlerBundle struct {
	// Command handlers.
	AddBook         shell.CommandHandler[addbook.Command]
	RemoveBook      shell.CommandHandler[removebook.Command]
	RegisterStudent shell.CommandHandler[registerstudent.Command]
	RemoveStudent   shell.CommandHandler[removestudent.Command]
	IssueBook       shell.CommandHandler[issuebook.Command]
	ReturnBook      shell.CommandHandler[returnbook.Command]

	// Query handlers.
	Catalog         shell.QueryHandler[catalog.Query, catalog.Catalog]
	OpenIssues      shell.QueryHandler[openissues.Query, openissues.OpenIssues]
	ExportIssueLogs shell.QueryHandler[exportissuelogs.Query, exportissuelogs.Export]
	LibraryStats    shell.QueryHandler[librarystats.Query, librarystats.LibraryStats]
	LoanHistory     shell.QueryHandler[loanhistory.Query, loanhistory.LoanHistory]
}

// NewHandlerBundle creates all handlers on engine. A nil o disables observability.
func NewHandlerBundle(engine circulation.Engine, maxOpenIssues int, o *config.Observability) (*HandlerBundle, error) {
	var err error
	b := &HandlerBundle{}

	if b.AddBook, err = wrapCommand(addbook.NewCommandHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create AddBook handler: %w", err)
	}

	if b.RemoveBook, err = wrapCommand(removebook.NewCommandHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create RemoveBook handler: %w", err)
	}

	if b.RegisterStudent, err = wrapCommand(registerstudent.NewCommandHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create RegisterStudent handler: %w", err)
	}

	if b.RemoveStudent, err = wrapCommand(removestudent.NewCommandHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create RemoveStudent handler: %w", err)
	}

	issueHandler := issuebook.NewCommandHandler(engine, issuebook.WithMaxOpenIssuesPerStudent(maxOpenIssues))
	if b.IssueBook, err = wrapCommand(issueHandler, o); err != nil {
		return nil, fmt.Errorf("failed to create IssueBook handler: %w", err)
	}

	if b.ReturnBook, err = wrapCommand(returnbook.NewCommandHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create ReturnBook handler: %w", err)
	}

	if b.Catalog, err = wrapQuery(catalog.NewQueryHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create Catalog handler: %w", err)
	}

	if b.OpenIssues, err = wrapQuery(openissues.NewQueryHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create OpenIssues handler: %w", err)
	}

	if b.ExportIssueLogs, err = wrapQuery(exportissuelogs.NewQueryHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create ExportIssueLogs handler: %w", err)
	}

	if b.LibraryStats, err = wrapQuery(librarystats.NewQueryHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create LibraryStats handler: %w", err)
	}

	if b.LoanHistory, err = wrapQuery(loanhistory.NewQueryHandler(engine), o); err != nil {
		return nil, fmt.Errorf("failed to create LoanHistory handler: %w", err)
	}

	return b, nil
}

func wrapCommand[C shell.Command](core shell.CommandHandler[C], o *config.Observability) (shell.CommandHandler[C], error) {
	var opts []observable.CommandOption[C]

	if o != nil {
		if o.Metrics != nil {
			opts = append(opts, observable.WithCommandMetrics[C](o.Metrics))
		}

		if o.Tracing != nil {
			opts = append(opts, observable.WithCommandTracing[C](o.Tracing))
		}

		if o.ContextualLogger != nil {
			opts = append(opts, observable.WithCommandContextualLogging[C](o.ContextualLogger))
		}
	}

	return observable.NewCommandWrapper(core, opts...)
}

func wrapQuery[Q shell.Query, R any](core shell.QueryHandler[Q, R], o *config.Observability) (shell.QueryHandler[Q, R], error) {
	var opts []observable.QueryOption[Q, R]

	if o != nil {
		if o.Metrics != nil {
			opts = append(opts, observable.WithQueryMetrics[Q, R](o.Metrics))
		}

		if o.Tracing != nil {
			opts = append(opts, observable.WithQueryTracing[Q, R](o.Tracing))
		}

		if o.ContextualLogger != nil {
			opts = append(opts, observable.WithQueryContextualLogging[Q, R](o.ContextualLogger))
		}
	}

	return observable.NewQueryWrapper(core, opts...)
}
