package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/tokensync/pkg/mcp"
)

func newMCPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return mcpserver.NewServer(a.engine, a.logger).ServeStdio()
		},
	}
}
