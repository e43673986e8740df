package returnbook

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return the book of an open issue log.
type Command struct {
	LogID      int64
	ReturnedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. The return date is truncated to the day.
func BuildCommand(logID int64, returnedAt time.Time) Command {
	return Command{
		LogID:      logID,
		ReturnedAt: circulation.Day(returnedAt),
	}
}
