package circulation

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form of issue and return dates.
const DateLayout = "2006-01-02"

// Book is a catalog entry. Available is false exactly while an open IssueLog references the book.
type Book struct {
	ID        int64
	Title     string
	Author    string
	Available bool
}

// Student is a borrower. Email is unique across all active students.
type Student struct {
	ID    int64
	Name  string
	Email string
}

// Admin is an operator of the administrative surface.
type Admin struct {
	ID       int64
	Username string
	Password string
}

// IssueLog is a ledger entry. A zero ReturnDate means the book is currently checked out.
type IssueLog struct {
	ID         int64
	StudentID  int64
	BookID     int64
	IssueDate  time.Time
	ReturnDate time.Time
}

// IsOpen reports whether the entry represents a book currently on loan.
func (l IssueLog) IsOpen() bool {
	return l.ReturnDate.IsZero()
}

// IssueDateString returns the issue date formatted with DateLayout.
func (l IssueLog) IssueDateString() string {
	return l.IssueDate.Format(DateLayout)
}

// ReturnDateString returns the return date formatted with DateLayout, or "" while the entry is open.
func (l IssueLog) ReturnDateString() string {
	if l.IsOpen() {
		return ""
	}

	return l.ReturnDate.Format(DateLayout)
}

// Day truncates t to its calendar date (in t's own location) and returns midnight UTC of that date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a date in DateLayout.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", ErrInvalidInput, s, err)
	}

	return t, nil
}

// NormalizeEmail trims and lower-cases an email address so that uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateBook checks the fields an administrator supplies when adding a book.
func ValidateBook(title, author string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("%w: author must not be empty", ErrInvalidInput)
	}

	return nil
}

// ValidateStudent checks the fields an administrator supplies when adding a student.
func ValidateStudent(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	if !strings.Contains(NormalizeEmail(email), "@") {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidInput, email)
	}

	return nil
}

// ValidateDay rejects the zero time. A zero ReturnDate marks an open issue log, so no date may be zero.
func ValidateDay(field string, day time.Time) error {
	if day.IsZero() {
		return fmt.Errorf("%w: %s must be set", ErrInvalidInput, field)
	}

	return nil
}

// PasswordMatches compares an admin's stored password with a given one in constant time.
func PasswordMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
