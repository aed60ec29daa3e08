package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	wisemcp "github.com/ppiankov/wise/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP tool server for agent integration",
		Long:  "Runs wise as an MCP (Model Context Protocol) server over stdio.\nExposes tools: wise_gate, wise_prove, wise_verify.",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	srv := wisemcp.New(wisemcp.Config{
		Pipeline: e.pipe,
		Metrics:  e.metrics,
		Version:  version,
	})

	fmt.Fprintln(cmd.ErrOrStderr(), "wise MCP server running on stdio")
	return srv.Run(cmd.Context())
}
