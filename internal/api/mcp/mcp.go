// Package mcp exposes the patch engine and the model catalog as MCP tools
// over streamable HTTP.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/deepsite/internal/domain/catalog"
	"github.com/matiasleandrokruk/deepsite/internal/version"
)

// Config wires the server's collaborators.
type Config struct {
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

// Server is the MCP server and its HTTP handler.
type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer registers the tools and builds a stateless HTTP handler.
func NewServer(c Config) (*Server, error) {
	if c.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{config: c}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "deepsite", Version: version.Version},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        applyPatchToolName,
		Description: applyPatchDescription,
	}, s.handleApplyPatch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listModelsToolName,
		Description: listModelsDescription,
	}, s.handleListModels)

	s.mcpServer = mcpServer
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return mcpServer },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)
	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler { return s.handler }

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server { return s.mcpServer }
