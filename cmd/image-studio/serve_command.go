package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over stdin/stdout",
		Long: "serve speaks the MCP protocol over stdin/stdout. Configure it in your MCP client;\n" +
			"logs go to stderr.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := ctx.buildStack(runCtx, false)
			if err != nil {
				return err
			}
			defer st.close()

			ctx.logger().WithField("version", Version).Info("serving MCP over stdio")
			return st.tools.Serve(runCtx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
