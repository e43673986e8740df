package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// SpyContextualLogRecord represents a recorded contextual log call.
type SpyContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// ContextualLoggerSpy is a circulation.ContextualLogger that captures all calls.
type ContextualLoggerSpy struct {
	records []SpyContextualLogRecord
	mu      sync.Mutex
}

var _ circulation.ContextualLogger = (*ContextualLoggerSpy)(nil)

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{records: make([]SpyContextualLogRecord, 0)}
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// DebugContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// Records returns a copy of all captured calls.
func (s *ContextualLoggerSpy) Records() []SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyContextualLogRecord, len(s.records))
	copy(records, s.records)

	return records
}

// HasRecord checks if a call with the given level and message was captured.
func (s *ContextualLoggerSpy) HasRecord(level, message string) bool {
	for _, record := range s.Records() {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}
