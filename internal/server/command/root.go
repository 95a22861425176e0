// Package command implements the bizkeeper-server command line.
package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bizkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/dmitrijs2005/bizkeeper/internal/server/config"
	"github.com/spf13/cobra"
)

type contextKey struct{}

type runtime struct {
	config *config.Config
	logger logging.Logger
}

// NewRootCommand builds the command tree. Running the root command without
// a subcommand serves the backend.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bizkeeper-server",
		Short: "Hosted record store for bizkeeper clients",
		Long: `bizkeeper-server keeps per-user copies of bizkeeper records in PostgreSQL
and serves them over gRPC to clients with cloud sync enabled.`,
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, &runtime{config: cfg, logger: logger}))
			return nil
		},
		RunE: runServe,
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return rootCmd
}

func runtimeFrom(cmd *cobra.Command) *runtime {
	rt, _ := cmd.Context().Value(contextKey{}).(*runtime)
	return rt
}

// Execute runs the command line and exits non-zero on failure.
func Execute(ctx context.Context) {
	rootCmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
