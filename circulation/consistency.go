package circulation

import "context"

// ConsistencyLevel defines the consistency requirements for read operations.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database.
	// This is the default, and units of work always use it.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from a replica database.
	// Suitable for listings, exports and dashboards that can tolerate slightly stale data.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "circulation.consistency_level"

// WithStrongConsistency returns a context that routes reads to the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that allows reads from a replica database.
//
// Example usage:
//
//	ctx = circulation.WithEventualConsistency(ctx)
//	entries, err := engine.Entries(ctx)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context.
// If no consistency level is set, it returns StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
