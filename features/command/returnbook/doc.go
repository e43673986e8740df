// Package returnbook implements the Return Book use case: checking a book back in.
//
// The CommandHandler closes the issue log and makes the book available again in one unit of work.
// An issue log is closed exactly once; a second return fails with circulation.ErrAlreadyClosed
// and leaves the first return date untouched.
package returnbook
