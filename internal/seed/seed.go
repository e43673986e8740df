package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/shared/shell"
)

// File is the YAML document accepted by Parse.
//
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	students:
//	  - name: Ada Lovelace
//	    email: ada@example.org
//	admins:
//	  - username: librarian
//	    password: secret
type File struct {
	Books    []BookEntry    `yaml:"books"`
	Students []StudentEntry `yaml:"students"`
	Admins   []AdminEntry   `yaml:"admins"`
}

type BookEntry struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

type StudentEntry struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type AdminEntry struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Result counts what Apply created and what it skipped as already present.
type Result struct {
	Books           int `json:"books"`
	Students        int `json:"students"`
	Admins          int `json:"admins"`
	SkippedStudents int `json:"skipped_students"`
	SkippedAdmins   int `json:"skipped_admins"`
}

// AdminDirectory is the part of the engine needed to create admins.
type AdminDirectory interface {
	AddAdmin(ctx context.Context, username, password string) (circulation.Admin, error)
}

// Seeder applies seed files through the regular command handlers.
type Seeder struct {
	addBook         shell.CommandHandler[addbook.Command]
	registerStudent shell.CommandHandler[registerstudent.Command]
	admins          AdminDirectory
}

// NewSeeder creates a new Seeder.
func NewSeeder(
	addBook shell.CommandHandler[addbook.Command],
	registerStudent shell.CommandHandler[registerstudent.Command],
	admins AdminDirectory,
) Seeder {
	return Seeder{addBook: addBook, registerStudent: registerStudent, admins: admins}
}

// Parse decodes and validates a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("%w: seed file: %w", circulation.ErrInvalidInput, err)
	}

	var errs []error

	for i, book := range file.Books {
		if err := circulation.ValidateBook(book.Title, book.Author); err != nil {
			errs = append(errs, fmt.Errorf("books[%d]: %w", i, err))
		}
	}

	for i, student := range file.Students {
		if err := circulation.ValidateStudent(student.Name, student.Email); err != nil {
			errs = append(errs, fmt.Errorf("students[%d]: %w", i, err))
		}
	}

	for i, admin := range file.Admins {
		if admin.Username == "" || admin.Password == "" {
			errs = append(errs, fmt.Errorf("admins[%d]: %w: username and password are required", i, circulation.ErrInvalidInput))
		}
	}

	if len(errs) > 0 {
		return File{}, errors.Join(errs...)
	}

	return file, nil
}

// ParseFile opens and parses the seed file at path.
func ParseFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Apply creates everything in file. Students whose email and admins whose username are
// already taken are skipped, so a file can be applied again after it was extended.
// Books have no natural key and are added on every run.
func (s Seeder) Apply(ctx context.Context, file File) (Result, error) {
	var result Result

	for _, book := range file.Books {
		if _, err := s.addBook.Handle(ctx, addbook.BuildCommand(book.Title, book.Author)); err != nil {
			return result, fmt.Errorf("adding book %q: %w", book.Title, err)
		}

		result.Books++
	}

	for _, student := range file.Students {
		_, err := s.registerStudent.Handle(ctx, registerstudent.BuildCommand(student.Name, student.Email))

		switch {
		case errors.Is(err, circulation.ErrDuplicateKey):
			result.SkippedStudents++
		case err != nil:
			return result, fmt.Errorf("registering student %q: %w", student.Email, err)
		default:
			result.Students++
		}
	}

	for _, admin := range file.Admins {
		_, err := s.admins.AddAdmin(ctx, admin.Username, admin.Password)

		switch {
		case errors.Is(err, circulation.ErrDuplicateKey):
			result.SkippedAdmins++
		case err != nil:
			return result, fmt.Errorf("adding admin %q: %w", admin.Username, err)
		default:
			result.Admins++
		}
	}

	return result, nil
}
