package cli

import (
	"github.com/spf13/cobra"

	"mongoextract/internal/app"
)

func newMCPCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the export pipeline over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.ServeMCP(e.cfg, e.logger)
		},
	}
}
