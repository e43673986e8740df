package addbook

const (
	commandType = "AddBook"
)

// Command represents the intent to add a book to the catalog.
type Command struct {
	Title  string
	Author string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(title, author string) Command {
	return Command{
		Title:  title,
		Author: author,
	}
}
