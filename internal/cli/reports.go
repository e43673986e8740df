package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/features/query/exportissuelogs"
	"github.com/AntonStoeckl/library-circulation-go/features/query/librarystats"
	"github.com/AntonStoeckl/library-circulation-go/features/query/openissues"
	"github.com/AntonStoeckl/library-circulation-go/internal/audit"
)

// NewExportCommand creates the export command. The CSV ignores --format.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var withNames bool
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all issue logs as CSV",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			export, err := rt.handlers.ExportIssueLogs.Handle(cmd.Context(), exportissuelogs.BuildQuery(withNames))
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return export.WriteCSV(cmd.OutOrStdout())
			}

			f, err := os.Create(out)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "creating export file", Err: err}
			}

			if err = export.WriteCSV(f); err != nil {
				_ = f.Close()
				return err
			}

			if err = f.Close(); err != nil {
				return err
			}

			writeLine(cmd.ErrOrStderr(), "exported %d issue logs to %s", export.Count(), out)

			return nil
		}),
	}

	cmd.Flags().BoolVar(&withNames, "with-names", false, "append student_name and book_title columns")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")

	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	var onLoan bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard counters, or the books on loan with --on-loan",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if onLoan {
				result, err := rt.handlers.OpenIssues.Handle(cmd.Context(), openissues.BuildQuery(0))
				if err != nil {
					return err
				}

				return rt.out.print(result, func(w io.Writer) {
					writeLine(w, "LOG\tSTUDENT\tBOOK\tISSUED")

					for _, issue := range result.Issues {
						writeLine(w, "%d\t%s\t%s\t%s", issue.LogID, issue.StudentName, issue.BookTitle, issue.IssuedOn)
					}
				})
			}

			stats, err := rt.handlers.LibraryStats.Handle(cmd.Context(), librarystats.BuildQuery())
			if err != nil {
				return err
			}

			return rt.out.print(stats, func(w io.Writer) {
				writeLine(w, "total titles\t%d", stats.TotalTitles)
				writeLine(w, "available titles\t%d", stats.AvailableTitles)
				writeLine(w, "students\t%d", stats.Students)
				writeLine(w, "open issues\t%d", stats.OpenIssues)
				writeLine(w, "closed issues\t%d", stats.ClosedIssues)
			})
		}),
	}

	cmd.Flags().BoolVar(&onLoan, "on-loan", false, "list the open issue logs instead of the counters")

	return cmd
}

// NewAuditCommand creates the audit command. It exits with ExitFailure when it finds inconsistencies.
func NewAuditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report books whose availability flag disagrees with the ledger",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			auditor := audit.NewAuditor(rt.engine, audit.WithLogger(rt.obs.Logger))

			report, err := auditor.Run(cmd.Context())
			if err != nil {
				return err
			}

			err = rt.out.print(report, func(w io.Writer) {
				writeLine(w, "checked %d books, %d findings", report.CheckedBooks, len(report.Findings))

				for _, finding := range report.Findings {
					writeLine(w, "book %d\tlog %d\t%s", finding.BookID, finding.LogID, finding.Problem)
				}
			})
			if err != nil {
				return err
			}

			if !report.Consistent() {
				return NewExitError(ExitFailure, fmt.Sprintf("%d inconsistent books", len(report.Findings)))
			}

			return nil
		}),
	}
}
