package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
	"github.com/AntonStoeckl/library-circulation-go/features/query/loanhistory"
)

type issueLogOutput struct {
	LogID      int64  `json:"log_id"`
	StudentID  int64  `json:"student_id"`
	BookID     int64  `json:"book_id"`
	IssueDate  string `json:"issue_date"`
	ReturnDate string `json:"return_date"`
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(opts *RootOptions) *cobra.Command {
	var studentID, bookID int64
	var date string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Check a book out to a student",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			issuedAt, err := dayOrToday(date)
			if err != nil {
				return err
			}

			result, err := rt.handlers.IssueBook.Handle(cmd.Context(), issuebook.BuildCommand(studentID, bookID, issuedAt))
			if err != nil {
				return err
			}

			return printEntry(cmd, rt, result.RecordID)
		}),
	}

	cmd.Flags().Int64Var(&studentID, "student", 0, "student id")
	cmd.Flags().Int64Var(&bookID, "book", 0, "book id")
	cmd.Flags().StringVar(&date, "date", "", "issue date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("book")

	return cmd
}

// NewReturnCommand creates the return command.
func NewReturnCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "return <log-id>",
		Short: "Close an issue log and make the book available again",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			logID, err := parseID(args[0])
			if err != nil {
				return err
			}

			returnedAt, err := dayOrToday(date)
			if err != nil {
				return err
			}

			if _, err = rt.handlers.ReturnBook.Handle(cmd.Context(), returnbook.BuildCommand(logID, returnedAt)); err != nil {
				return err
			}

			return printEntry(cmd, rt, logID)
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "return date as YYYY-MM-DD (default today)")

	return cmd
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var studentID int64
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List issue logs newest first, for one student or the whole library",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if studentID < 0 || limit < 0 {
				return fmt.Errorf("%w: student and limit must not be negative", circulation.ErrInvalidInput)
			}

			if studentID > 0 && !cmd.Flags().Changed("limit") {
				limit = 0
			}

			result, err := rt.handlers.LoanHistory.Handle(cmd.Context(), loanhistory.BuildQuery(studentID, limit))
			if err != nil {
				return err
			}

			return rt.out.print(result, func(w io.Writer) {
				writeLine(w, "LOG\tSTUDENT\tBOOK\tISSUED\tRETURNED")
				for _, loan := range result.Loans {
					writeLine(w, "%d\t%s\t%s\t%s\t%s", loan.LogID, loan.StudentName, loan.BookTitle, loan.IssueDate, loan.ReturnDate)
				}
			})
		}),
	}

	cmd.Flags().Int64Var(&studentID, "student", 0, "only this student's issue logs, all of them unless --limit is set")
	cmd.Flags().IntVar(&limit, "limit", loanhistory.DefaultLimit, "maximum number of issue logs, 0 for all")

	return cmd
}

func printEntry(cmd *cobra.Command, rt *runtime, logID int64) error {
	entry, err := rt.engine.GetEntry(cmd.Context(), logID)
	if err != nil {
		return err
	}

	output := issueLogOutput{
		LogID:      entry.ID,
		StudentID:  entry.StudentID,
		BookID:     entry.BookID,
		IssueDate:  entry.IssueDateString(),
		ReturnDate: entry.ReturnDateString(),
	}

	return rt.out.print(output, func(w io.Writer) {
		writeLine(w, "LOG\tSTUDENT\tBOOK\tISSUED\tRETURNED")
		writeLine(w, "%d\t%d\t%d\t%s\t%s", output.LogID, output.StudentID, output.BookID, output.IssueDate, output.ReturnDate)
	})
}

func dayOrToday(date string) (time.Time, error) {
	if date == "" {
		return time.Now(), nil
	}

	return circulation.ParseDay(date)
}
