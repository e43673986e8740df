package issuebook

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "IssueBook"
)

// Command represents the intent to issue a book to a student.
type Command struct {
	StudentID int64
	BookID    int64
	IssuedAt  time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. The issue date is truncated to the day.
func BuildCommand(studentID, bookID int64, issuedAt time.Time) Command {
	return Command{
		StudentID: studentID,
		BookID:    bookID,
		IssuedAt:  circulation.Day(issuedAt),
	}
}
