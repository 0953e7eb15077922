package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/adapters/driving/mcp"
)

// reaperInterval is how often idle sessions are swept.
const reaperInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port (or --http to use the configured address) to start a
streamable HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  doclens serve

  # HTTP mode (for MCP Inspector, remote access)
  doclens serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "doclens": {
        "command": "/path/to/doclens",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().Bool("http", false, "serve HTTP on the configured server address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured (set OPENAI_API_KEY)")
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	useHTTP, err := cmd.Flags().GetBool("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Search: searchService}, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	server.Registry().StartReaper(ctx, reaperInterval, cfg.SessionTTL())

	// The reranker degrades to similarity order on failure, so an
	// unhealthy sidecar is worth a warning up front, not a refusal.
	if rerankClient != nil {
		if herr := rerankClient.Health(ctx); herr != nil {
			log.Warn("rerank service unhealthy, results will keep similarity order", zap.Error(herr))
		}
	}

	addr := ""
	switch {
	case port > 0:
		addr = fmt.Sprintf(":%d", port)
	case useHTTP:
		addr = cfg.Server.Addr
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
