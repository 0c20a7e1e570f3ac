package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docqa/internal/config"
	"github.com/kirillkom/docqa/internal/observability/logging"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configFile string
	logLevel   string
	cfg        config.Config
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "docqa",
		Short: "Answer questions about a document with retrieval and extractive QA",
		Long: `docqa chunks a document, indexes it with embeddings and answers each question
from the most relevant passages, reporting confidence and supporting evidence.

Example usage:
  docqa ask --file policy.pdf -q "What is the grace period?"
  docqa ask --url https://example.com/policy.pdf -q "..." -q "..." --json --detailed
  docqa mcp                                   # serve the answer_questions tool over stdio`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				if err := os.Setenv("CONFIG_FILE", opts.configFile); err != nil {
					return fmt.Errorf("set config file: %w", err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			opts.cfg = cfg

			slog.SetDefault(logging.New(stderr, "docqa-cli", cfg.LogLevel, "text"))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newAskCommand(opts, stdout, stderr))
	root.AddCommand(newMCPCommand(opts))
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
