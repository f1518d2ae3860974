package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_filter",
		mcp.WithPromptDescription("Turn a plain-language description into a filter document for export_collection"),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("Which records to export, in plain words"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("collection",
			mcp.ArgumentDescription("Collection the filter targets"),
		),
	), s.handleBuildFilterPrompt)
}

func (s *Server) handleBuildFilterPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	desc := req.Params.Arguments["description"]
	collection := req.Params.Arguments["collection"]
	if collection == "" {
		collection = s.defaults.Collection
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a filter for: %s", desc),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a filter document selecting "%s" from the %q collection. Follow these steps:

1. Write the filter as a JSON object. Query operators like $gt, $in and $and are allowed.
2. Use Extended JSON tags for typed values: {"$oid": "<24 hex chars>"} for ids,
   {"$date": "2024-01-01T00:00:00Z"} for dates, {"$numberLong": "123"} for 64-bit integers.
3. Call parse_filter with the document and fix any syntax failure it reports.
4. Call export_collection with the validated filter.`, desc, collection),
				},
			},
		},
	}, nil
}
