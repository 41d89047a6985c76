package cmd

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/stitchlabs/promptdash/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can analyze
prompts before sending them and review past analyses.

The MCP server runs over stdin/stdout and provides tools for:
- Analyzing a prompt (scores, mistakes, improved rewrite)
- Retrieving recent analysis history

Example usage with Claude Code:
  promptdash mcp

The server will run until the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(ctx context.Context) error {
	contexts := openContextStore()

	analyticsStore, err := openAnalytics()
	if err != nil {
		return err
	}
	defer func() { _ = analyticsStore.Close() }()

	analysisService, err := buildAnalyzer(contexts)
	if err != nil {
		return err
	}

	impl := &mcpsdk.Implementation{
		Name:    "promptdash",
		Version: version,
	}

	server := mcpsdk.NewServer(impl, &mcpsdk.ServerOptions{})

	if err := mcp.RegisterTools(server, mcp.Deps{
		Analyzer:  analysisService,
		Analytics: analyticsStore,
	}); err != nil {
		return fmt.Errorf("failed to register MCP tools: %w", err)
	}

	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
