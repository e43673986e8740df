package memengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// unit is a circulation.Tx over the shared state. Every write appends its inverse to undo.
type unit struct {
	state *state
	undo  []func()
}

var _ circulation.Tx = (*unit)(nil)

// rollback replays the undo steps in reverse order and returns how many were replayed.
func (u *unit) rollback() int {
	steps := len(u.undo)

	for i := steps - 1; i >= 0; i-- {
		u.undo[i]()
	}

	u.undo = nil

	return steps
}

func (u *unit) onRollback(step func()) {
	u.undo = append(u.undo, step)
}

func (u *unit) GetBook(_ context.Context, id int64) (circulation.Book, error) {
	book, exists := u.state.books[id]
	if !exists {
		return circulation.Book{}, fmt.Errorf("book %d: %w", id, circulation.ErrNotFound)
	}

	return book, nil
}

func (u *unit) GetStudent(_ context.Context, id int64) (circulation.Student, error) {
	student, exists := u.state.students[id]
	if !exists {
		return circulation.Student{}, fmt.Errorf("student %d: %w", id, circulation.ErrNotFound)
	}

	return student, nil
}

func (u *unit) ListBooks(_ context.Context) ([]circulation.Book, error) {
	return sortedValues(u.state.books), nil
}

func (u *unit) ListStudents(_ context.Context) ([]circulation.Student, error) {
	return sortedValues(u.state.students), nil
}

func (u *unit) SetBookAvailable(ctx context.Context, id int64, available bool) error {
	before, err := u.GetBook(ctx, id)
	if err != nil {
		return err
	}

	after := before
	after.Available = available
	u.state.books[id] = after
	u.onRollback(func() { u.state.books[id] = before })

	return nil
}

func (u *unit) AddBook(_ context.Context, title, author string) (circulation.Book, error) {
	if err := circulation.ValidateBook(title, author); err != nil {
		return circulation.Book{}, err
	}

	u.state.lastBookID++
	book := circulation.Book{
		ID:        u.state.lastBookID,
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Available: true,
	}
	u.state.books[book.ID] = book

	u.onRollback(func() {
		delete(u.state.books, book.ID)
		u.state.lastBookID--
	})

	return book, nil
}

func (u *unit) AddStudent(_ context.Context, name, email string) (circulation.Student, error) {
	if err := circulation.ValidateStudent(name, email); err != nil {
		return circulation.Student{}, err
	}

	email = circulation.NormalizeEmail(email)

	for _, existing := range u.state.students {
		if existing.Email == email {
			return circulation.Student{}, fmt.Errorf("student email %q: %w", email, circulation.ErrDuplicateKey)
		}
	}

	u.state.lastStudentID++
	student := circulation.Student{
		ID:    u.state.lastStudentID,
		Name:  strings.TrimSpace(name),
		Email: email,
	}
	u.state.students[student.ID] = student

	u.onRollback(func() {
		delete(u.state.students, student.ID)
		u.state.lastStudentID--
	})

	return student, nil
}

func (u *unit) RemoveBook(ctx context.Context, id int64) error {
	book, err := u.GetBook(ctx, id)
	if err != nil {
		return err
	}

	if _, open, _ := u.OpenEntryForBook(ctx, id); open {
		return fmt.Errorf("remove book %d: %w", id, circulation.ErrConflict)
	}

	delete(u.state.books, id)
	u.onRollback(func() { u.state.books[id] = book })

	return nil
}

func (u *unit) RemoveStudent(ctx context.Context, id int64) error {
	student, err := u.GetStudent(ctx, id)
	if err != nil {
		return err
	}

	if open, _ := u.OpenEntriesForStudent(ctx, id); len(open) > 0 {
		return fmt.Errorf("remove student %d: %w", id, circulation.ErrConflict)
	}

	delete(u.state.students, id)
	u.onRollback(func() { u.state.students[id] = student })

	return nil
}

func (u *unit) GetEntry(_ context.Context, logID int64) (circulation.IssueLog, error) {
	if logID < 1 || logID > int64(len(u.state.entries)) {
		return circulation.IssueLog{}, fmt.Errorf("issue log %d: %w", logID, circulation.ErrNotFound)
	}

	return u.state.entries[logID-1], nil
}

func (u *unit) OpenEntryForBook(_ context.Context, bookID int64) (circulation.IssueLog, bool, error) {
	for _, entry := range u.state.entries {
		if entry.BookID == bookID && entry.IsOpen() {
			return entry, true, nil
		}
	}

	return circulation.IssueLog{}, false, nil
}

func (u *unit) OpenEntriesForStudent(_ context.Context, studentID int64) ([]circulation.IssueLog, error) {
	open := make([]circulation.IssueLog, 0)

	for _, entry := range u.state.entries {
		if entry.StudentID == studentID && entry.IsOpen() {
			open = append(open, entry)
		}
	}

	return open, nil
}

func (u *unit) Entries(_ context.Context) ([]circulation.IssueLog, error) {
	entries := make([]circulation.IssueLog, len(u.state.entries))
	copy(entries, u.state.entries)

	return entries, nil
}

func (u *unit) CreateEntry(ctx context.Context, studentID, bookID int64, issueDate time.Time) (circulation.IssueLog, error) {
	if err := circulation.ValidateDay("issue date", issueDate); err != nil {
		return circulation.IssueLog{}, err
	}

	if _, err := u.GetStudent(ctx, studentID); err != nil {
		return circulation.IssueLog{}, err
	}

	if _, err := u.GetBook(ctx, bookID); err != nil {
		return circulation.IssueLog{}, err
	}

	if _, open, _ := u.OpenEntryForBook(ctx, bookID); open {
		return circulation.IssueLog{}, fmt.Errorf("book %d: %w", bookID, circulation.ErrUnavailable)
	}

	entry := circulation.IssueLog{
		ID:        int64(len(u.state.entries)) + 1,
		StudentID: studentID,
		BookID:    bookID,
		IssueDate: circulation.Day(issueDate),
	}
	u.state.entries = append(u.state.entries, entry)

	u.onRollback(func() { u.state.entries = u.state.entries[:len(u.state.entries)-1] })

	return entry, nil
}

func (u *unit) CloseEntry(ctx context.Context, logID int64, returnDate time.Time) (circulation.IssueLog, error) {
	if err := circulation.ValidateDay("return date", returnDate); err != nil {
		return circulation.IssueLog{}, err
	}

	before, err := u.GetEntry(ctx, logID)
	if err != nil {
		return circulation.IssueLog{}, err
	}

	if !before.IsOpen() {
		return circulation.IssueLog{}, fmt.Errorf("issue log %d: %w", logID, circulation.ErrAlreadyClosed)
	}

	after := before
	after.ReturnDate = circulation.Day(returnDate)
	u.state.entries[logID-1] = after

	u.onRollback(func() { u.state.entries[logID-1] = before })

	return after, nil
}
