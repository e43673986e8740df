// Package circulation provides the core types and contracts of the library circulation tracker.
//
// The tracker keeps three kinds of records:
//   - Book: a catalog entry with an availability flag
//   - Student: a borrower, unique by email
//   - IssueLog: a ledger entry created when a book is issued and closed once when it is returned
//
// The catalog and the ledger are two views of one engine (see Engine). Every state transition
// that touches both, issuing and returning a book, runs inside a single unit of work:
//
//	err := engine.Atomically(ctx, func(tx circulation.Tx) error {
//		book, err := tx.GetBook(ctx, bookID)
//		if err != nil {
//			return err
//		}
//		// decide ...
//		if _, err = tx.CreateEntry(ctx, studentID, book.ID, issueDate); err != nil {
//			return err
//		}
//		return tx.SetBookAvailable(ctx, book.ID, false)
//	})
//
// If the function returns an error, nothing it wrote is visible afterward.
// Engines report lost races with ErrConcurrencyConflict; callers are expected to retry
// the whole unit of work.
//
// Implementations live in the memengine (in-process) and sqlengine (PostgreSQL, SQLite) packages.
package circulation
