package returnbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// State is the part of the catalog and the ledger the return decision depends on.
type State struct {
	Entry         circulation.IssueLog
	EntryFound    bool
	BookFound     bool
	BookAvailable bool
}

// Decide checks whether the issue log in command may be closed. It is a pure function.
//
// Business Rules:
//
//	GIVEN: an issue log with LogID
//	WHEN: ReturnBook command is received
//	THEN: the issue log gets its return date and the book becomes available
//	ERROR: ErrInvalidInput if ReturnedAt is zero
//	ERROR: ErrNotFound if the issue log does not exist
//	ERROR: ErrAlreadyClosed if the issue log already has a return date
//	ERROR: ErrInvalidInput if ReturnedAt lies before the issue date
//	ERROR: ErrInconsistentState if the book of an open issue log is missing or flagged available
func Decide(s State, command Command) error {
	if err := circulation.ValidateDay("return date", command.ReturnedAt); err != nil {
		return err
	}

	if !s.EntryFound {
		return fmt.Errorf("issue log %d: %w", command.LogID, circulation.ErrNotFound)
	}

	if !s.Entry.IsOpen() {
		return fmt.Errorf(
			"issue log %d returned on %s: %w",
			command.LogID, s.Entry.ReturnDateString(), circulation.ErrAlreadyClosed,
		)
	}

	if command.ReturnedAt.Before(s.Entry.IssueDate) {
		return fmt.Errorf(
			"%w: return date %s of issue log %d is before its issue date %s",
			circulation.ErrInvalidInput, command.ReturnedAt.Format(circulation.DateLayout),
			command.LogID, s.Entry.IssueDateString(),
		)
	}

	if !s.BookFound || s.BookAvailable {
		return fmt.Errorf(
			"book %d of open issue log %d (found=%t, available=%t): %w",
			s.Entry.BookID, command.LogID, s.BookFound, s.BookAvailable, circulation.ErrInconsistentState,
		)
	}

	return nil
}

// project reads the State for command inside tx.
func project(ctx context.Context, tx circulation.Tx, command Command) (State, error) {
	var s State

	entry, err := tx.GetEntry(ctx, command.LogID)
	if errors.Is(err, circulation.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, err
	}

	s.Entry = entry
	s.EntryFound = true

	book, err := tx.GetBook(ctx, entry.BookID)
	if errors.Is(err, circulation.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, err
	}

	s.BookFound = true
	s.BookAvailable = book.Available

	return s, nil
}
