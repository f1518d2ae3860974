package mcpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mongoextract/internal/config"
	"mongoextract/internal/service"
)

// Server is the MCP server for mongo-extract.
// It exposes the export pipeline as tools so AI agents can pull data without the GUI.
type Server struct {
	mcp      *server.MCPServer
	export   *service.ExportService
	guard    *service.RunGuard
	defaults config.Defaults
	logger   *slog.Logger
}

// Deps holds all dependencies passed from the shell to the MCP server.
type Deps struct {
	Export   *service.ExportService
	Guard    *service.RunGuard // shared with the GUI when both run in one process
	Defaults config.Defaults
	Logger   *slog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		export:   deps.Export,
		guard:    deps.Guard,
		defaults: deps.Defaults,
		logger:   deps.Logger,
	}
	if s.guard == nil {
		s.guard = &service.RunGuard{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.export == nil {
		s.export = service.NewExportService(s.logger)
	}

	s.mcp = server.NewMCPServer(
		"mongo-extract-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult is jsonResult flagged as a tool-level error.
func errorResult(v any) (*mcp.CallToolResult, error) {
	res, err := jsonResult(v)
	if err != nil {
		return nil, err
	}
	res.IsError = true
	return res, nil
}

// stringArg returns args[key] or fallback when absent or blank.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
