// Package openissues lists the books currently on loan, optionally for a single student.
package openissues
