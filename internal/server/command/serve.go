package command

import (
	"github.com/dmitrijs2005/bizkeeper/internal/server"
	"github.com/spf13/cobra"
)

// newApp is a seam for tests.
var newApp = server.NewApp

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and serve the gRPC endpoint",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	rt := runtimeFrom(cmd)
	ctx := cmd.Context()

	app, err := newApp(ctx, rt.config, rt.logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
