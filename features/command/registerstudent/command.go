package registerstudent

const (
	commandType = "RegisterStudent"
)

// Command represents the intent to register a student.
type Command struct {
	Name  string
	Email string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(name, email string) Command {
	return Command{
		Name:  name,
		Email: email,
	}
}
