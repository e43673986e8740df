package shell

import "time"

// HandlerResult represents the outcome of a command handler execution.
// It carries the business outcome (idempotency) and the retry metadata
// without coupling the handler to a specific observability implementation.
type HandlerResult struct {
	// Idempotent indicates that no state change was needed.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error encountered.
	// Values: "none", "concurrency_conflict", "context_canceled", "context_deadline_exceeded", "other"
	LastErrorType string

	// RetriesExhausted indicates whether max attempts were reached with a retryable error.
	RetriesExhausted bool

	// RecordID is the id of the record the command created or changed (book, student or issue log).
	RecordID int64
}

// NewSuccessResult creates a HandlerResult for operations that changed state.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return newResult(retryMetrics, false)
}

// NewIdempotentResult creates a HandlerResult for operations that needed no state change.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	return newResult(retryMetrics, true)
}

// NewErrorResult creates a HandlerResult for failed operations, keeping the retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return newResult(retryMetrics, false)
}

func newResult(retryMetrics RetryMetrics, idempotent bool) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// WithRecordID returns a copy of r that reports id as the affected record.
func (r HandlerResult) WithRecordID(id int64) HandlerResult {
	r.RecordID = id
	return r
}
