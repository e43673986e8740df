package shell

import "context"

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandHandler defines the contract for components that process commands.
// Handlers return HandlerResult containing the business outcome and retry metadata.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}

// Query represents the contract for all query types.
type Query interface {
	QueryType() string
}

// QueryHandler defines the contract for components that build read models.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
