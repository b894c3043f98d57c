package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seranno/wayfarer/internal/cli"
	"github.com/seranno/wayfarer/internal/logging"
	mcpAdapter "github.com/seranno/wayfarer/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Wayfarer as an MCP server, so agents can open stories, follow
links and resume paths as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}

		// Logs must stay off stdout; stdio transport owns it for JSON-RPC.
		level := logging.ParseLevel(cfg.Log.Level)
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)
		slog.SetDefault(logger)

		svc, closeStore, err := cli.BuildService(cfg, logger)
		if err != nil {
			log.Fatalf("Error initializing wayfarer: %v", err)
		}
		defer closeStore()

		srv := mcpAdapter.NewServer(svc)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("Starting Wayfarer MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Wayfarer MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
