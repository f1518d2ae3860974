package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"mongoextract/internal/export"
)

const formatsURI = "export://formats"

func (s *Server) registerResources() {
	// ── export://formats ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		formatsURI,
		"Export Formats",
		mcp.WithResourceDescription("Formats export_collection can produce"),
		mcp.WithMIMEType("application/json"),
	), s.handleFormatsResource)
}

func (s *Server) handleFormatsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, _ := json.MarshalIndent(export.Formats(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
