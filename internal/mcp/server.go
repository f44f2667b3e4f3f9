package mcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dvanosdol88/ai-assistants/internal/app"
	"github.com/dvanosdol88/ai-assistants/internal/core/poller"
)

// Server implements the handoff MCP server using mcp-go
type Server struct {
	mcpServer *server.MCPServer
	container *app.Container
	poller    *poller.Poller
	version   string
}

// NewServer creates an MCP server acting as the container's identity
func NewServer(container *app.Container, version string) (*Server, error) {
	p, err := container.NewPoller()
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			"handoff",
			version,
			server.WithLogging(),
		),
		container: container,
		poller:    p,
		version:   version,
	}

	if err := s.registerTools(); err != nil {
		return nil, err
	}

	return s, nil
}

// registerTools registers all handoff tools
func (s *Server) registerTools() error {
	tools := []struct {
		name    string
		params  interface{}
		handler server.ToolHandlerFunc
	}{
		{"handoff_send", SendParams{}, s.handleSend},
		{"handoff_peek", PeekParams{}, s.handlePeek},
		{"handoff_run_once", RunOnceParams{}, s.handleRunOnce},
		{"handoff_archive_list", ListParams{}, s.handleArchiveList},
		{"handoff_rejected_list", ListParams{}, s.handleRejectedList},
	}

	for _, tool := range tools {
		opts, err := WithStructOptions(GetEnhancedDescription(tool.name), tool.params)
		if err != nil {
			return fmt.Errorf("failed to create %s options: %w", tool.name, err)
		}
		s.mcpServer.AddTool(mcp.NewTool(tool.name, opts...), tool.handler)
	}

	return nil
}

// Start serves MCP over stdin and stdout until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams until ctx is cancelled
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.container.Logger.Info("MCP server started", "version", s.version)
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

func (s *Server) metadata() *ToolResultMetadata {
	return &ToolResultMetadata{Identity: s.container.Identity}
}
