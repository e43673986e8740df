// Package shell contains the infrastructure shared by the command and query handlers:
// optimistic concurrency retries, handler results, and observability helpers.
//
// Handlers in features/... depend only on this package and on circulation.
// The observable subpackage decorates any handler with metrics, tracing and logging.
package shell
