package returnbook

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

// Engine defines the interface needed by the CommandHandler.
type Engine interface {
	Atomically(ctx context.Context, fn circulation.TxFunc) error
}

// CommandHandler orchestrates the return workflow with retry: Read -> Decide -> Write, all in one unit of work.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	engine       Engine
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(engine Engine, opts ...Option) CommandHandler {
	handler := CommandHandler{
		engine: engine,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle closes the issue log and reports its id in HandlerResult.RecordID.
// The whole unit of work is retried on circulation.ErrConcurrencyConflict.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics).WithRecordID(command.LogID), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	ctx = circulation.WithStrongConsistency(ctx)

	return h.engine.Atomically(ctx, func(tx circulation.Tx) error {
		s, err := project(ctx, tx, command)
		if err != nil {
			return err
		}

		if err = Decide(s, command); err != nil {
			return err
		}

		if _, err = tx.CloseEntry(ctx, command.LogID, command.ReturnedAt); err != nil {
			return err
		}

		return tx.SetBookAvailable(ctx, s.Entry.BookID, true)
	})
}
