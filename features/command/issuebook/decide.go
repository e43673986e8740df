package issuebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// DefaultMaxOpenIssuesPerStudent is the checkout limit a CommandHandler enforces unless configured otherwise.
const DefaultMaxOpenIssuesPerStudent = 5

// State is the part of the catalog and the ledger the issue decision depends on.
type State struct {
	BookFound         bool
	BookAvailable     bool
	OpenEntryFound    bool
	StudentFound      bool
	StudentOpenIssues int
}

// Decide checks whether the book in command may be issued. It is a pure function.
//
// Business Rules:
//
//	GIVEN: a book with BookID and a student with StudentID
//	WHEN: IssueBook command is received
//	THEN: an open issue log is created and the book becomes unavailable
//	ERROR: ErrInvalidInput if IssuedAt is zero
//	ERROR: ErrNotFound if the book does not exist
//	ERROR: ErrInconsistentState if the availability flag and the ledger disagree
//	ERROR: ErrUnavailable if the book is already issued
//	ERROR: ErrNotFound if the student does not exist
//	ERROR: ErrCheckoutLimitReached if the student holds maxOpenIssues books (0 means no limit)
func Decide(s State, command Command, maxOpenIssues int) error {
	if err := circulation.ValidateDay("issue date", command.IssuedAt); err != nil {
		return err
	}

	if !s.BookFound {
		return fmt.Errorf("book %d: %w", command.BookID, circulation.ErrNotFound)
	}

	if s.BookAvailable == s.OpenEntryFound {
		return fmt.Errorf(
			"book %d (available=%t, open entry=%t): %w",
			command.BookID, s.BookAvailable, s.OpenEntryFound, circulation.ErrInconsistentState,
		)
	}

	if !s.BookAvailable {
		return fmt.Errorf("book %d: %w", command.BookID, circulation.ErrUnavailable)
	}

	if !s.StudentFound {
		return fmt.Errorf("student %d: %w", command.StudentID, circulation.ErrNotFound)
	}

	if maxOpenIssues > 0 && s.StudentOpenIssues >= maxOpenIssues {
		return fmt.Errorf(
			"student %d holds %d books: %w",
			command.StudentID, s.StudentOpenIssues, circulation.ErrCheckoutLimitReached,
		)
	}

	return nil
}

// project reads the State for command inside tx.
func project(ctx context.Context, tx circulation.Tx, command Command) (State, error) {
	var s State

	book, err := tx.GetBook(ctx, command.BookID)
	if errors.Is(err, circulation.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, err
	}

	s.BookFound = true
	s.BookAvailable = book.Available

	if _, s.OpenEntryFound, err = tx.OpenEntryForBook(ctx, book.ID); err != nil {
		return s, err
	}

	_, err = tx.GetStudent(ctx, command.StudentID)
	if errors.Is(err, circulation.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, err
	}

	s.StudentFound = true

	openIssues, err := tx.OpenEntriesForStudent(ctx, command.StudentID)
	if err != nil {
		return s, err
	}

	s.StudentOpenIssues = len(openIssues)

	return s, nil
}
