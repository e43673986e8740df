// Package registerstudent implements the Register Student use case.
//
// Emails are compared case-insensitively after trimming; a taken email fails with
// circulation.ErrDuplicateKey and leaves the catalog unchanged.
package registerstudent
