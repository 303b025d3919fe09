// Package mcp exposes the token engine as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/tokensync/pkg/engine"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for tokensync.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by e. Tool calls are logged to
// logger (slog.Default() when nil).
func NewServer(e *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: e, logger: logger}

	s.mcpServer = server.NewMCPServer(
		"tokensync",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: importTokensTool(), Handler: s.handleImportTokens},
		server.ServerTool{Tool: exportTokensTool(), Handler: s.handleExportTokens},
		server.ServerTool{Tool: listCollectionsTool(), Handler: s.handleListCollections},
		server.ServerTool{Tool: clearVariablesTool(), Handler: s.handleClearVariables},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
