package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	taskqmcp "github.com/valter-silva-au/taskq/internal/mcp"
)

var mcpFile string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the taskq MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskq MCP server on stdio",
	Long: `Start the taskq MCP server on stdio transport.

The server owns one in-memory queue for as long as it runs and exposes it as
MCP tools: push_task, pop_task, list_tasks, get_task, complete_task,
get_metrics, get_alerts. Use --file to seed the queue before serving.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("task queue not initialized")
		}
		if mcpFile != "" {
			// stdout carries the protocol, so the import is only logged.
			if _, err := importTaskFile(Queue, mcpFile); err != nil {
				return err
			}
		}

		srv := taskqmcp.NewServer(Queue, MetricsCalc, sessionAlertEngine(""), appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVarP(&mcpFile, "file", "f", "", "Seed the queue from a task file")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
