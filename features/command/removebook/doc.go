// Package removebook implements the Remove Book use case.
//
// A book that is currently issued cannot be removed (circulation.ErrConflict).
package removebook
