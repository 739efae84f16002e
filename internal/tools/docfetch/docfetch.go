// Package docfetch implements the gdocs_get_document MCP tool: fetch a
// document from the backend, cache its flattened text for gdrive://docs/
// reads, and answer with either a summary or the (truncated) text.
package docfetch

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/resource"
	"github.com/MrWong99/drivegate/internal/tools"
	"github.com/MrWong99/drivegate/internal/truncate"
)

const toolName = "gdocs_get_document"

// Input is the JSON-decoded argument block for gdocs_get_document.
type Input struct {
	// DocumentID is the ID of the document to fetch.
	DocumentID string `json:"document_id" jsonschema:"ID of the document to fetch"`

	// Mode selects the response shape: "summary" or "full". Empty uses
	// the server's configured default.
	Mode string `json:"mode,omitempty" jsonschema:"Response shape: summary or full. Empty uses the configured default."`
}

// Register adds the gdocs_get_document tool to s.
func Register(s *mcp.Server, d tools.Deps) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolName,
		Description: "Fetch a Google Docs document and cache it. Returns a summary with a gdrive://docs/ resource URI, or the full text when mode is \"full\".",
	}, handler(d))
}

func handler(d tools.Deps) func(context.Context, *mcp.CallToolRequest, Input) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, any, error) {
		log := observe.Logger(ctx)
		if in.DocumentID == "" {
			d.Metrics.RecordToolCall(ctx, toolName, "error")
			return tools.ErrorResult("document_id is required"), nil, nil
		}

		start := time.Now()
		content, err := d.Backend.FetchDocument(ctx, in.DocumentID)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			d.Metrics.RecordFetch(ctx, d.BackendName, "document", "error", elapsed)
			d.Metrics.RecordToolCall(ctx, toolName, "error")
			log.Warn("document fetch failed", "document_id", in.DocumentID, "error", err)
			return tools.ErrorResult("Failed to fetch document %s: %v", in.DocumentID, err), nil, nil
		}
		d.Metrics.RecordFetch(ctx, d.BackendName, "document", "ok", elapsed)
		d.Metrics.RecordToolCall(ctx, toolName, "ok")

		uri := resource.DocContentURI(content.ID)
		hint := "Use " + resource.DocChunkURI(content.ID, truncate.CharacterLimit, 2*truncate.CharacterLimit) + " style chunk URIs to read the remainder."
		res, err := tools.Respond(ctx, d, toolName, content, d.Mode(in.Mode), uri, hint)
		return res, nil, err
	}
}
