// Package filefetch implements the gdrive_read_file MCP tool for arbitrary
// Drive files, caching their text for gdrive://files/ reads.
package filefetch

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/resource"
	"github.com/MrWong99/drivegate/internal/tools"
	"github.com/MrWong99/drivegate/internal/truncate"
)

const toolName = "gdrive_read_file"

// Input is the JSON-decoded argument block for gdrive_read_file.
type Input struct {
	// FileID is the ID of the file to read.
	FileID string `json:"file_id" jsonschema:"ID of the file to read"`

	// Mode selects the response shape: "summary" or "full". Empty uses
	// the server's configured default.
	Mode string `json:"mode,omitempty" jsonschema:"Response shape: summary or full. Empty uses the configured default."`
}

// Register adds the gdrive_read_file tool to s.
func Register(s *mcp.Server, d tools.Deps) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolName,
		Description: "Read a Google Drive file and cache it. Returns a summary with a gdrive://files/ resource URI, or the full text when mode is \"full\".",
	}, handler(d))
}

func handler(d tools.Deps) func(context.Context, *mcp.CallToolRequest, Input) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, any, error) {
		log := observe.Logger(ctx)
		if in.FileID == "" {
			d.Metrics.RecordToolCall(ctx, toolName, "error")
			return tools.ErrorResult("file_id is required"), nil, nil
		}

		start := time.Now()
		content, err := d.Backend.FetchFile(ctx, in.FileID)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			d.Metrics.RecordFetch(ctx, d.BackendName, "file", "error", elapsed)
			d.Metrics.RecordToolCall(ctx, toolName, "error")
			log.Warn("file fetch failed", "file_id", in.FileID, "error", err)
			return tools.ErrorResult("Failed to read file %s: %v", in.FileID, err), nil, nil
		}
		d.Metrics.RecordFetch(ctx, d.BackendName, "file", "ok", elapsed)
		d.Metrics.RecordToolCall(ctx, toolName, "ok")

		uri := resource.FileContentURI(content.ID)
		hint := "Use " + resource.FileRangeURI(content.ID, truncate.CharacterLimit, 2*truncate.CharacterLimit) + " style range URIs to read the remainder."
		res, err := tools.Respond(ctx, d, toolName, content, d.Mode(in.Mode), uri, hint)
		return res, nil, err
	}
}
