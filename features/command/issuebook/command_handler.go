package issuebook

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

// Engine defines the interface needed by the CommandHandler.
type Engine interface {
	Atomically(ctx context.Context, fn circulation.TxFunc) error
}

// CommandHandler orchestrates the issue workflow with retry: Read -> Decide -> Write, all in one unit of work.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	engine        Engine
	retryOptions  []shell.RetryOption
	maxOpenIssues int
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithMaxOpenIssuesPerStudent sets the checkout limit. A limit of 0 or less disables it.
func WithMaxOpenIssuesPerStudent(limit int) Option {
	return func(h *CommandHandler) {
		h.maxOpenIssues = max(limit, 0)
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(engine Engine, opts ...Option) CommandHandler {
	handler := CommandHandler{
		engine:        engine,
		maxOpenIssues: DefaultMaxOpenIssuesPerStudent,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle issues the book and returns the id of the new issue log in HandlerResult.RecordID.
// The whole unit of work is retried on circulation.ErrConcurrencyConflict.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var entry circulation.IssueLog

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		entry, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics).WithRecordID(entry.ID), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.IssueLog, error) {
	var entry circulation.IssueLog

	ctx = circulation.WithStrongConsistency(ctx)

	err := h.engine.Atomically(ctx, func(tx circulation.Tx) error {
		s, err := project(ctx, tx, command)
		if err != nil {
			return err
		}

		if err = Decide(s, command, h.maxOpenIssues); err != nil {
			return err
		}

		entry, err = tx.CreateEntry(ctx, command.StudentID, command.BookID, command.IssuedAt)
		if err != nil {
			return err
		}

		return tx.SetBookAvailable(ctx, command.BookID, false)
	})

	return entry, err
}
