package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/internal/adminhttp"
	"github.com/AntonStoeckl/library-circulation-go/internal/audit"
	"github.com/AntonStoeckl/library-circulation-go/internal/loadgen"
	"github.com/AntonStoeckl/library-circulation-go/internal/seed"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command: the admin HTTP surface plus the scheduled audit.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin HTTP surface and run the scheduled consistency audit",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = rt.cfg.HTTPAddr
			}

			auditor := audit.NewAuditor(rt.engine, audit.WithLogger(rt.obs.Logger), audit.WithMetrics(rt.obs.Metrics))
			scheduler := cron.New()

			if _, err := auditor.Schedule(ctx, scheduler, rt.cfg.AuditSchedule); err != nil {
				return err
			}

			scheduler.Start()
			defer scheduler.Stop()

			server := adminhttp.NewServer(rt.engine, rt.handlers, adminhttp.WithLogger(rt.obs.ContextualLogger))

			serveErr := make(chan error, 1)
			go func() {
				rt.obs.Logger.Info("admin http surface listening", "addr", addr, "store", rt.cfg.Store)
				serveErr <- server.Listen(addr)
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			rt.obs.Logger.Info("shutting down")

			return server.Shutdown(shutdownCtx)
		}),
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default CIRCULATION_HTTP_ADDR)")

	return cmd
}

// NewMigrateCommand creates the migrate command. The schema is applied while opening the store.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(_ *cobra.Command, _ []string, rt *runtime) error {
			return rt.out.print(map[string]string{"store": rt.cfg.Store, "status": "migrated"}, func(w io.Writer) {
				writeLine(w, "schema of %s store is up to date", rt.cfg.Store)
			})
		}),
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load books, students and admins from a YAML file",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			seedFile, err := seed.ParseFile(file)
			if err != nil {
				return err
			}

			seeder := seed.NewSeeder(rt.handlers.AddBook, rt.handlers.RegisterStudent, rt.engine)

			result, err := seeder.Apply(cmd.Context(), seedFile)
			if err != nil {
				return err
			}

			return rt.out.print(result, func(w io.Writer) {
				writeLine(w, "books\t%d", result.Books)
				writeLine(w, "students\t%d\t(%d already registered)", result.Students, result.SkippedStudents)
				writeLine(w, "admins\t%d\t(%d already present)", result.Admins, result.SkippedAdmins)
			})
		}),
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// NewSimulateCommand creates the simulate command: concurrent issue and return traffic followed by an audit.
func NewSimulateCommand(opts *RootOptions) *cobra.Command {
	cfg := loadgen.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Issue and return random books concurrently, then audit the store",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			generator := loadgen.NewGenerator(rt.engine, rt.handlers.IssueBook, rt.handlers.ReturnBook,
				loadgen.WithLogger(rt.obs.Logger))

			stats, err := generator.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			report, err := audit.NewAuditor(rt.engine, audit.WithLogger(rt.obs.Logger)).Run(cmd.Context())
			if err != nil {
				return err
			}

			output := map[string]any{"stats": stats, "findings": report.Findings}

			err = rt.out.print(output, func(w io.Writer) {
				writeLine(w, "operations\t%d\t(%s)", stats.Operations, stats.Elapsed.Round(time.Millisecond))
				writeLine(w, "issued\t%d", stats.Issued)
				writeLine(w, "returned\t%d", stats.Returned)
				writeLine(w, "rejected\t%d", stats.Rejected)
				writeLine(w, "errors\t%d", stats.Errors)
				writeLine(w, "inconsistent books\t%d", len(report.Findings))
			})
			if err != nil {
				return err
			}

			if !report.Consistent() {
				return NewExitError(ExitFailure, fmt.Sprintf("%d inconsistent books after simulation", len(report.Findings)))
			}

			return nil
		}),
	}

	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent workers")
	cmd.Flags().IntVar(&cfg.Operations, "operations", cfg.Operations, "total issue and return operations")
	cmd.Flags().IntVar(&cfg.ReturnWeight, "return-weight", cfg.ReturnWeight, "share of returns in percent")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")

	return cmd
}
