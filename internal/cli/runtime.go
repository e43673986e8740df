package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/internal/app"
	"github.com/AntonStoeckl/library-circulation-go/internal/config"
)

// runtime is everything a subcommand needs; close releases it.
type runtime struct {
	cfg      config.Config
	obs      *config.Observability
	engine   circulation.Engine
	handlers *app.HandlerBundle
	out      *outputFormatter
	closeFn  config.CloseFunc
}

// openRuntime loads the configuration, opens the engine and builds the handlers.
// Logs go to stderr so that JSON output on stdout stays parseable.
func openRuntime(cmd *cobra.Command, opts *RootOptions) (*runtime, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "loading configuration", Err: err}
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "configuring logging", Err: err}
	}

	obs, err := config.NewObservability(ctx, cfg, logger)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "configuring observability", Err: err}
	}

	engine, closeFn, err := config.OpenEngine(ctx, cfg, obs)
	if err != nil {
		_ = obs.Shutdown()
		return nil, &ExitError{Code: ExitCommandError, Message: "opening store", Err: err}
	}

	rt := &runtime{
		cfg:     cfg,
		obs:     obs,
		engine:  engine,
		out:     newOutputFormatter(opts, cmd.OutOrStdout()),
		closeFn: closeFn,
	}

	if err = rt.bootstrapAdmin(ctx); err != nil {
		rt.close()
		return nil, err
	}

	if rt.handlers, err = app.NewHandlerBundle(engine, cfg.MaxOpenIssues, obs); err != nil {
		rt.close()
		return nil, err
	}

	return rt, nil
}

// bootstrapAdmin creates the admin from CIRCULATION_ADMIN_USERNAME/PASSWORD unless it exists.
func (rt *runtime) bootstrapAdmin(ctx context.Context) error {
	if !rt.cfg.HasBootstrapAdmin() {
		return nil
	}

	_, err := rt.engine.AddAdmin(ctx, rt.cfg.AdminUsername, rt.cfg.AdminPassword)
	if err != nil && !errors.Is(err, circulation.ErrDuplicateKey) {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}

	return nil
}

func (rt *runtime) close() {
	rt.closeFn()

	if err := rt.obs.Shutdown(); err != nil {
		rt.obs.Logger.Warn("observability shutdown failed", "error", err.Error())
	}
}

// withRuntime wraps a RunE body with openRuntime and close.
func withRuntime(opts *RootOptions, run func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, opts)
		if err != nil {
			return err
		}
		defer rt.close()

		return run(cmd, args, rt)
	}
}

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
