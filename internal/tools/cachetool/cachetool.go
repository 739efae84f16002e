// Package cachetool implements the resource_cache_stats MCP tool, which
// reports what the resource cache currently holds.
package cachetool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/tools"
)

const toolName = "resource_cache_stats"

// Input is the (empty) argument block for resource_cache_stats.
type Input struct{}

// Register adds the resource_cache_stats tool to s.
func Register(s *mcp.Server, d tools.Deps) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolName,
		Description: "Report the resource cache contents: entry keys, types, ages, and text lengths.",
	}, handler(d))
}

func handler(d tools.Deps) func(context.Context, *mcp.CallToolRequest, Input) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ Input) (*mcp.CallToolResult, any, error) {
		// Sweep first so the report does not list entries a read would
		// refuse to serve.
		d.Metrics.RecordEvictions(ctx, d.Cache.Cleanup())
		d.Metrics.RecordToolCall(ctx, toolName, "ok")

		res, err := tools.JSONResult(d.Cache.Snapshot())
		return res, nil, err
	}
}
