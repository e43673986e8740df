// Package removestudent implements the Remove Student use case.
//
// A student holding any issued book cannot be removed (circulation.ErrConflict).
package removestudent
