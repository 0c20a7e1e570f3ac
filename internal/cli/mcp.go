package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/docqa/internal/adapters/mcp"
	"github.com/kirillkom/docqa/internal/bootstrap"
)

func newMCPCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the answer_questions tool over MCP stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout. Logs go to stderr so the
protocol stream stays clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := bootstrap.NewPipeline(root.cfg, nil)
			if err != nil {
				return fmt.Errorf("failed to build pipeline: %w", err)
			}
			slog.Info("mcp_server_starting", "version", Version)
			return mcpadapter.NewServer(pipeline.Loader, pipeline.Answerer, Version).ServeStdio()
		},
	}
}
