// Package issuebook implements the Issue Book use case: checking a book out to a student.
//
// The CommandHandler reads the book, its open ledger entry and the student inside one unit of work,
// lets the pure Decide function check the preconditions, and then creates the open issue log and
// clears the book's availability flag together.
//
// Preconditions, in the order they are checked:
//   - the book exists (circulation.ErrNotFound)
//   - the availability flag agrees with the ledger (circulation.ErrInconsistentState)
//   - the book is available (circulation.ErrUnavailable)
//   - the student exists (circulation.ErrNotFound)
//   - the student is below the checkout limit (circulation.ErrCheckoutLimitReached)
package issuebook
