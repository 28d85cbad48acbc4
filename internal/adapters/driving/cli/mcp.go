package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/adapters/driving/mcp"
	"github.com/custodia-labs/parable/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server offers four tools: answer, narrate, search and wellness. Stories
from narrate are fact checked before they are returned.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve streamable HTTP instead; Prometheus metrics are then available at
/metrics on the same port.

Examples:
  # Stdio mode (default, for desktop assistants)
  parable mcp serve

  # HTTP mode (for MCP Inspector, remote access, metrics)
  parable mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "parable": {
        "command": "/path/to/parable",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Guidance: guidanceService,
		Library:  library,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if watchIndex != nil {
		go func() {
			if err := watchIndex(cmd.Context()); err != nil {
				logger.Warn("Index watcher stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s (metrics at /metrics)\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
