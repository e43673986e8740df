package observable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

type mockCommand struct{}

func (mockCommand) CommandType() string { return "TestCommand" }

type mockHandler struct {
	result shell.HandlerResult
	err    error
	calls  []mockCommand
}

func (h *mockHandler) Handle(_ context.Context, command mockCommand) (shell.HandlerResult, error) {
	h.calls = append(h.calls, command)
	return h.result, h.err
}

type wrapperSpies struct {
	metrics *testdoubles.MetricsCollectorSpy
	tracing *testdoubles.TracingCollectorSpy
	logger  *testdoubles.ContextualLoggerSpy
}

func newWrapper(t *testing.T, handler *mockHandler) (*observable.CommandWrapper[mockCommand], wrapperSpies) {
	t.Helper()

	spies := wrapperSpies{
		metrics: testdoubles.NewMetricsCollectorSpy(),
		tracing: testdoubles.NewTracingCollectorSpy(),
		logger:  testdoubles.NewContextualLoggerSpy(),
	}

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](spies.metrics),
		observable.WithCommandTracing[mockCommand](spies.tracing),
		observable.WithCommandContextualLogging[mockCommand](spies.logger),
	)
	require.NoError(t, err)

	return wrapper, spies
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	expectedResult := shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}
	handler := &mockHandler{result: expectedResult}
	wrapper, spies := newWrapper(t, handler)

	// act
	result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, expectedResult, result)
	assert.Len(t, handler.calls, 1)

	labels := map[string]string{"command_type": "TestCommand", "status": "success"}
	assert.True(t, spies.metrics.Has(shell.CommandHandlerCallsMetric, labels))
	assert.True(t, spies.metrics.Has(shell.CommandHandlerDurationMetric, labels))
	assert.False(t, spies.metrics.Has(shell.CommandHandlerRetriesMetric, nil))

	spans := spies.tracing.FinishedSpans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.Equal(t, "success", spans[0].Status)

	assert.True(t, spies.logger.HasRecord("info", shell.LogMsgCommandStarted))
	assert.True(t, spies.logger.HasRecord("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{Idempotent: true, RetryAttempts: 1}}
	wrapper, spies := newWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, spies.metrics.Has(shell.CommandHandlerIdempotentMetric, map[string]string{"command_type": "TestCommand"}))
}

func Test_CommandWrapper_Handle_WithRetries_RecordsMetrics(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{
		RetryAttempts:   3,
		TotalRetryDelay: 15 * time.Millisecond,
		LastErrorType:   "none",
	}}
	wrapper, spies := newWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, spies.metrics.Has(shell.CommandHandlerRetriesMetric, map[string]string{
		"command_type":   "TestCommand",
		"attempt_number": "2",
	}))
	assert.True(t, spies.metrics.Has(shell.CommandHandlerRetryDelayMetric, map[string]string{"command_type": "TestCommand"}))
}

func Test_CommandWrapper_Handle_BusinessRejection(t *testing.T) {
	// arrange
	handler := &mockHandler{err: circulation.ErrUnavailable, result: shell.HandlerResult{RetryAttempts: 1}}
	wrapper, spies := newWrapper(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, circulation.ErrUnavailable)
	assert.True(t, spies.metrics.Has(shell.CommandHandlerCallsMetric, map[string]string{"status": "rejected"}))
	assert.True(t, spies.logger.HasRecord("warn", shell.LogMsgCommandRejected))
	assert.False(t, spies.logger.HasRecord("error", shell.LogMsgCommandFailed))

	spans := spies.tracing.FinishedSpans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.Equal(t, "rejected", spans[0].Status)
	assert.Contains(t, spans[0].EndAttributes["error"], "not available")
}

func Test_CommandWrapper_Handle_TechnicalErrors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus string
	}{
		{name: "unknown", err: errors.New("disk full"), expectedStatus: shell.StatusError},
		{name: "canceled", err: context.Canceled, expectedStatus: shell.StatusCanceled},
		{name: "timeout", err: context.DeadlineExceeded, expectedStatus: shell.StatusTimeout},
		{name: "conflict", err: circulation.ErrConcurrencyConflict, expectedStatus: shell.StatusConcurrencyConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			handler := &mockHandler{err: tc.err}
			wrapper, spies := newWrapper(t, handler)

			// act
			_, err := wrapper.Handle(context.Background(), mockCommand{})

			// assert
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, spies.metrics.Has(shell.CommandHandlerCallsMetric, map[string]string{"status": tc.expectedStatus}))
			assert.True(t, spies.logger.HasRecord("error", shell.LogMsgCommandFailed))
		})
	}
}

func Test_CommandWrapper_Handle_WithoutObservability(t *testing.T) {
	// arrange
	handler := &mockHandler{result: shell.HandlerResult{RetryAttempts: 1}}
	wrapper, err := observable.NewCommandWrapper[mockCommand](handler)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.Len(t, handler.calls, 1)
}
