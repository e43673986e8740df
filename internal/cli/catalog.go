package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removestudent"
	"github.com/AntonStoeckl/library-circulation-go/features/query/catalog"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var username, password string

	add := &cobra.Command{
		Use:   "add",
		Short: "Create an admin account for the HTTP surface",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			admin, err := rt.engine.AddAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			return rt.out.print(map[string]any{"id": admin.ID, "username": admin.Username}, func(w io.Writer) {
				writeLine(w, "admin %d\t%s", admin.ID, admin.Username)
			})
		}),
	}

	add.Flags().StringVar(&username, "username", "", "admin username")
	add.Flags().StringVar(&password, "password", "", "admin password")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)

	return cmd
}

// NewBookCommand creates the book command group.
func NewBookCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, remove and list books",
	}

	var title, author string

	add := &cobra.Command{
		Use:   "add",
		Short: "Add an available book to the catalog",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			result, err := rt.handlers.AddBook.Handle(cmd.Context(), addbook.BuildCommand(title, author))
			if err != nil {
				return err
			}

			book, err := rt.engine.GetBook(cmd.Context(), result.RecordID)
			if err != nil {
				return err
			}

			return rt.out.print(book, func(w io.Writer) { printBooks(w, []circulation.Book{book}) })
		}),
	}

	add.Flags().StringVar(&title, "title", "", "book title")
	add.Flags().StringVar(&author, "author", "", "book author")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("author")

	remove := &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a book that is not on loan",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if _, err = rt.handlers.RemoveBook.Handle(cmd.Context(), removebook.BuildCommand(id)); err != nil {
				return err
			}

			return rt.out.print(map[string]int64{"removed_book_id": id}, func(w io.Writer) {
				writeLine(w, "removed book %d", id)
			})
		}),
	}

	var availableOnly bool
	var search string

	list := &cobra.Command{
		Use:   "list",
		Short: "List the books in the catalog",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			result, err := rt.handlers.Catalog.Handle(cmd.Context(), catalog.BuildQuery(availableOnly).WithSearch(search))
			if err != nil {
				return err
			}

			return rt.out.print(result.Books, func(w io.Writer) { printBooks(w, result.Books) })
		}),
	}

	list.Flags().BoolVar(&availableOnly, "available", false, "only books that are not on loan")
	list.Flags().StringVar(&search, "search", "", "only books whose title or author contains this text")

	cmd.AddCommand(add, remove, list)

	return cmd
}

// NewStudentCommand creates the student command group.
func NewStudentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Register, remove and list students",
	}

	var name, email string

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a student; the email must be unique",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			result, err := rt.handlers.RegisterStudent.Handle(cmd.Context(), registerstudent.BuildCommand(name, email))
			if err != nil {
				return err
			}

			student, err := rt.engine.GetStudent(cmd.Context(), result.RecordID)
			if err != nil {
				return err
			}

			return rt.out.print(student, func(w io.Writer) { printStudents(w, []circulation.Student{student}) })
		}),
	}

	add.Flags().StringVar(&name, "name", "", "student name")
	add.Flags().StringVar(&email, "email", "", "student email")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")

	remove := &cobra.Command{
		Use:   "remove <student-id>",
		Short: "Remove a student without books on loan",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if _, err = rt.handlers.RemoveStudent.Handle(cmd.Context(), removestudent.BuildCommand(id)); err != nil {
				return err
			}

			return rt.out.print(map[string]int64{"removed_student_id": id}, func(w io.Writer) {
				writeLine(w, "removed student %d", id)
			})
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the registered students",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			result, err := rt.handlers.Catalog.Handle(cmd.Context(), catalog.BuildQuery(false))
			if err != nil {
				return err
			}

			return rt.out.print(result.Students, func(w io.Writer) { printStudents(w, result.Students) })
		}),
	}

	cmd.AddCommand(add, remove, list)

	return cmd
}

func printBooks(w io.Writer, books []circulation.Book) {
	writeLine(w, "ID\tTITLE\tAUTHOR\tAVAILABLE")

	for _, book := range books {
		writeLine(w, "%d\t%s\t%s\t%t", book.ID, book.Title, book.Author, book.Available)
	}
}

func printStudents(w io.Writer, students []circulation.Student) {
	writeLine(w, "ID\tNAME\tEMAIL")

	for _, student := range students {
		writeLine(w, "%d\t%s\t%s", student.ID, student.Name, student.Email)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", circulation.ErrInvalidInput, raw)
	}

	return id, nil
}
