// cmd/mysql-ai-bridge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askdba/mysql-ai-bridge/internal/config"
	"github.com/askdba/mysql-ai-bridge/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port int

	root := &cobra.Command{
		Use:   "mysql-ai-bridge",
		Short: "MySQL schema and query bridge with an LLM proxy",
		Long: `mysql-ai-bridge runs the mysql client on behalf of a web front end,
returns schemas and query results as JSON, and forwards SQL generation and
chat requests to Ollama, OpenAI or Anthropic.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	root.PersistentFlags().StringVarP(&config.ConfigFilePath, "config", "c", "", "path to a YAML or JSON config file")
	root.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	serve.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the bridge operations as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context())
		},
	}

	validate := &cobra.Command{
		Use:   "validate-config <path>",
		Short: "Check a config file without starting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateConfigFile(args[0]); err != nil {
				return fmt.Errorf("invalid config %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
			return nil
		},
	}

	printCfg := &cobra.Command{
		Use:   "print-config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Source != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", cfg.Source)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.PrintConfig(cfg))
			return nil
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mysql-ai-bridge %s\n", Version)
		},
	}

	root.AddCommand(serve, mcpCmd, validate, printCfg, version)
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(parent context.Context, port int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.HTTPPort = port
	}

	logger := logging.Setup(cfg.LogLevel, cfg.JSONLogging, nil)
	if cfg.Source != "" {
		logger.WithField("path", cfg.Source).Info("loaded config file")
	}

	b, err := newBridge(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signalContext(parent)
	defer stop()
	return serveHTTP(ctx, cfg, b, logger)
}

func runMCP(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout carries the protocol; logs go to stderr.
	logger := logging.Setup(cfg.LogLevel, cfg.JSONLogging, os.Stderr)

	b, err := newBridge(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signalContext(parent)
	defer stop()
	return serveMCP(ctx, b)
}
