package sqlengine

import (
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithDialect selects the SQL dialect for stores built from sql.DB or sqlx.DB.
// Supported values are DialectPostgres (the default) and DialectSQLite3.
func WithDialect(dialect string) Option {
	return func(s *Store) error {
		switch dialect {
		case DialectPostgres, DialectSQLite3:
			s.dialect = dialect
			return nil
		default:
			return fmt.Errorf("%w: %q", circulation.ErrUnsupportedDialect, dialect)
		}
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: completed units of work with durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like rollback or cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It receives the same messages as the Logger, with the context of the operation,
// so that trace and span ids get correlated when tracing is enabled.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives unit of work and query durations, database error counts and concurrency conflicts.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// One span is opened per unit of work.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
