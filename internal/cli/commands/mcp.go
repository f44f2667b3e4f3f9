package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server on stdio so MCP-capable agents
can send, inspect and process handoff messages as this identity.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; logs go to stderr
	container, err := createContainer(CreateLogger())
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(container, Version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Starting MCP server as %s. Press Ctrl+C to stop\n", container.Identity)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintf(os.Stderr, "MCP server stopped\n")
	return nil
}
