// ABOUTME: MCP server exposing sam to AI agents over stdio.
// ABOUTME: Provides tools, resources, and prompts for records, reminders, and history.

package mcp

import (
	"context"

	"github.com/harper/sam/internal/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Server struct {
	server *mcp.Server
	app    *app.App
}

func NewServer(a *app.App, version string) *Server {
	s := &Server{app: a}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "sam",
			Version: version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
			HasPrompts:   true,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
