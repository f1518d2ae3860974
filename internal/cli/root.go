// Package cli is the mongo-extract command line. Without a subcommand it
// opens the desktop window; export runs one pipeline headless and mcp
// serves the pipeline to agents over stdio.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mongoextract/internal/config"
	"mongoextract/internal/service"
)

// GUIFunc opens the desktop window and blocks until it closes.
type GUIFunc func(cfg *config.Config, logger *slog.Logger) error

// Deps are the pieces main wires in.
type Deps struct {
	GUI GUIFunc
	// ServiceOptions are appended to the export service options.
	ServiceOptions []service.Option
	Stderr         io.Writer
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute(deps Deps, args []string) int {
	rootCmd := newRootCmd(deps)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

// env is resolved once per invocation in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(deps Deps) *cobra.Command {
	var (
		configPath string
		logLevel   string
		e          env
	)
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	rootCmd := &cobra.Command{
		Use:           "mongo-extract",
		Short:         "Export database query results to CSV or Excel",
		Long:          "Fetch the records matching a filter document and package them as CSV or XLSX.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Apply precedence: flag > config file > default
			if cmd.Flags().Changed("log-level") {
				if _, err := config.ParseLevel(logLevel); err != nil {
					return err
				}
				cfg.LogLevel = logLevel
			}
			e.cfg = cfg
			e.logger = cfg.NewLogger(stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.GUI == nil {
				return errors.New("desktop window not available in this build; use the export subcommand")
			}
			return deps.GUI(e.cfg, e.logger)
		},
	}
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExportCmd(&e, deps.ServiceOptions))
	rootCmd.AddCommand(newMCPCmd(&e))

	return rootCmd
}
