// Package sheetfetch implements the spreadsheet MCP tools.
//
// Two tools are exported via [Register]:
//   - "gsheets_get_spreadsheet"  — fetch and cache a whole spreadsheet.
//   - "sheets_batchGetValues"    — fetch specific cell ranges directly from
//     the backend, bypassing the cache.
package sheetfetch

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/resource"
	"github.com/MrWong99/drivegate/internal/tools"
	"github.com/MrWong99/drivegate/internal/truncate"
)

const (
	getToolName   = "gsheets_get_spreadsheet"
	batchToolName = "sheets_batchGetValues"
)

// GetInput is the JSON-decoded argument block for gsheets_get_spreadsheet.
type GetInput struct {
	// SpreadsheetID is the ID of the spreadsheet to fetch.
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"ID of the spreadsheet to fetch"`

	// Mode selects the response shape: "summary" or "full". Empty uses
	// the server's configured default.
	Mode string `json:"mode,omitempty" jsonschema:"Response shape: summary or full. Empty uses the configured default."`
}

// BatchInput is the JSON-decoded argument block for sheets_batchGetValues.
type BatchInput struct {
	// SpreadsheetID is the ID of the spreadsheet to read ranges from.
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"ID of the spreadsheet to read ranges from"`

	// Ranges lists the A1-notation ranges to fetch (e.g. "Sheet1!A1:B10").
	Ranges []string `json:"ranges" jsonschema:"A1-notation ranges to fetch, e.g. Sheet1!A1:B10"`
}

// Register adds both spreadsheet tools to s.
func Register(s *mcp.Server, d tools.Deps) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        getToolName,
		Description: "Fetch a Google Sheets spreadsheet and cache its flattened grid. Returns a summary with a gdrive:// resource URI for the cached grid, or the full text when mode is \"full\".",
	}, getHandler(d))
	mcp.AddTool(s, &mcp.Tool{
		Name:        batchToolName,
		Description: "Fetch specific cell ranges from a spreadsheet. Use this for targeted reads instead of fetching the whole sheet.",
	}, batchHandler(d))
}

func getHandler(d tools.Deps) func(context.Context, *mcp.CallToolRequest, GetInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GetInput) (*mcp.CallToolResult, any, error) {
		log := observe.Logger(ctx)
		if in.SpreadsheetID == "" {
			d.Metrics.RecordToolCall(ctx, getToolName, "error")
			return tools.ErrorResult("spreadsheet_id is required"), nil, nil
		}

		start := time.Now()
		content, err := d.Backend.FetchSpreadsheet(ctx, in.SpreadsheetID)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			d.Metrics.RecordFetch(ctx, d.BackendName, "spreadsheet", "error", elapsed)
			d.Metrics.RecordToolCall(ctx, getToolName, "error")
			log.Warn("spreadsheet fetch failed", "spreadsheet_id", in.SpreadsheetID, "error", err)
			return tools.ErrorResult("Failed to fetch spreadsheet %s: %v", in.SpreadsheetID, err), nil, nil
		}
		d.Metrics.RecordFetch(ctx, d.BackendName, "spreadsheet", "ok", elapsed)
		d.Metrics.RecordToolCall(ctx, getToolName, "ok")

		// The cached flattened grid is served through the content URI.
		// Structured per-range reads go through sheets_batchGetValues.
		uri := resource.FileContentURI(content.ID)
		hint := "Use the " + batchToolName + " tool with narrower ranges to read the remainder."
		res, err := tools.Respond(ctx, d, getToolName, content, d.Mode(in.Mode), uri, hint)
		return res, nil, err
	}
}

func batchHandler(d tools.Deps) func(context.Context, *mcp.CallToolRequest, BatchInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in BatchInput) (*mcp.CallToolResult, any, error) {
		log := observe.Logger(ctx)
		if in.SpreadsheetID == "" {
			d.Metrics.RecordToolCall(ctx, batchToolName, "error")
			return tools.ErrorResult("spreadsheet_id is required"), nil, nil
		}
		if len(in.Ranges) == 0 {
			d.Metrics.RecordToolCall(ctx, batchToolName, "error")
			return tools.ErrorResult("ranges must not be empty (e.g. [\"Sheet1!A1:B10\"])"), nil, nil
		}

		start := time.Now()
		values, err := d.Backend.BatchGetValues(ctx, in.SpreadsheetID, in.Ranges)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			d.Metrics.RecordFetch(ctx, d.BackendName, "spreadsheet", "error", elapsed)
			d.Metrics.RecordToolCall(ctx, batchToolName, "error")
			log.Warn("batch values fetch failed", "spreadsheet_id", in.SpreadsheetID, "error", err)
			return tools.ErrorResult("Failed to fetch values from %s: %v", in.SpreadsheetID, err), nil, nil
		}
		d.Metrics.RecordFetch(ctx, d.BackendName, "spreadsheet", "ok", elapsed)
		d.Metrics.RecordToolCall(ctx, batchToolName, "ok")

		res, err := tools.JSONResult(values)
		if err != nil {
			return nil, nil, err
		}
		// Even per-range reads can blow the response limit on wide sheets.
		if text, ok := res.Content[0].(*mcp.TextContent); ok {
			tr := truncate.Truncate(text.Text, truncate.WithHint("Request fewer or narrower ranges."))
			if tr.Truncated {
				d.Metrics.RecordTruncation(ctx, batchToolName)
				text.Text = tr.Text
			}
		}
		return res, nil, nil
	}
}
