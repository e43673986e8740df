package removestudent

const (
	commandType = "RemoveStudent"
)

// Command represents the intent to remove a student.
type Command struct {
	StudentID int64
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(studentID int64) Command {
	return Command{StudentID: studentID}
}
