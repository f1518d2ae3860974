package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"mongoextract/internal/domain"
	"mongoextract/internal/filter"
	"mongoextract/internal/service"
)

// exportSummary is what export_collection reports back to the agent.
type exportSummary struct {
	Status      domain.OutcomeStatus `json:"status"`
	RecordCount int                  `json:"recordCount"`
	Path        string               `json:"path,omitempty"`
	Bytes       int                  `json:"bytes,omitempty"`
	Failure     *domain.Failure      `json:"failure,omitempty"`
}

func (s *Server) registerExportTools() {
	s.mcp.AddTool(mcp.NewTool("export_collection",
		mcp.WithDescription("Fetch the documents matching a filter and write them to a CSV or XLSX file"),
		mcp.WithString("uri", mcp.Description("Connection string (mongodb://, postgres://, mysql://, sqlite://)")),
		mcp.WithString("database", mcp.Description("Database name")),
		mcp.WithString("collection", mcp.Description("Collection (or table) name")),
		mcp.WithString("filter", mcp.Description(`Filter document as JSON; Extended JSON tags such as {"$oid": "..."} are recognized`)),
		mcp.WithString("format", mcp.Description("Export format"), mcp.Enum("csv", "excel")),
		mcp.WithString("outputPath", mcp.Description("Where to write the file (defaults to mongo_export.csv/.xlsx in the working directory)")),
	), s.handleExportCollection)

	s.mcp.AddTool(mcp.NewTool("parse_filter",
		mcp.WithDescription("Validate a filter document and echo it as Extended JSON without touching any database"),
		mcp.WithString("filter", mcp.Description("Filter document as JSON"), mcp.Required()),
	), s.handleParseFilter)
}

func (s *Server) handleExportCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	d := s.defaults
	format := d.Format
	if format == "" {
		format = domain.FormatCSV
	}
	in := service.ExportRequest{
		URI:        stringArg(args, "uri", d.URI),
		Database:   stringArg(args, "database", d.Database),
		Collection: stringArg(args, "collection", d.Collection),
		Filter:     stringArg(args, "filter", d.Filter),
		Format:     domain.ExportFormat(stringArg(args, "format", string(format))),
	}
	if in.URI == "" || in.Collection == "" {
		return nil, fmt.Errorf("uri and collection are required")
	}

	if !s.guard.TryLock() {
		return textResult("an export is already running"), nil
	}
	defer s.guard.Unlock()

	out := s.export.Run(ctx, in)
	summary := exportSummary{
		Status:      out.Status,
		RecordCount: out.RecordCount,
		Failure:     out.Failure,
	}
	switch out.Status {
	case domain.StatusFailed:
		return errorResult(summary)
	case domain.StatusEmpty:
		return jsonResult(summary)
	}

	path := stringArg(args, "outputPath", out.Artifact.Filename)
	if err := writeArtifact(path, out.Artifact); err != nil {
		return nil, err
	}
	summary.Path = path
	summary.Bytes = len(out.Artifact.Payload)
	return jsonResult(summary)
}

func (s *Server) handleParseFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("filter", "")
	doc, err := filter.Parse(text)
	if err != nil {
		msg := err.Error()
		var de *domain.Error
		if errors.As(err, &de) {
			msg = de.Err.Error()
		}
		return errorResult(domain.Failure{Kind: domain.KindOf(err), Message: msg})
	}
	return jsonResult(map[string]any{
		"filter": doc.String(),
		"keys":   doc.Keys(),
	})
}

// writeArtifact writes the payload, creating parent directories.
func writeArtifact(path string, a *domain.Artifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, a.Payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
