// Package tools holds the shared plumbing for Drivegate's MCP tools: the
// dependency bundle handed to each tool package, response shaping for the
// summary and full modes, and helpers for building tool results.
//
// Each sub-package exports a Register function that adds its tools to an
// [mcp.Server]. Tool handlers never return Go errors for domain failures;
// a failed fetch becomes an IsError tool result so the calling model sees
// the message and can react.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/rescache"
	"github.com/MrWong99/drivegate/internal/truncate"
)

// Deps bundles everything a tool handler needs. All fields must be set.
type Deps struct {
	// Backend fetches content from the configured drive service.
	Backend drive.Service

	// BackendName labels fetch metrics (e.g. "localdir").
	BackendName string

	// Cache receives every successfully fetched resource so that later
	// gdrive:// reads can be answered without a refetch.
	Cache *rescache.Cache

	// Metrics records tool calls, fetch latency, and cache activity.
	Metrics *observe.Metrics

	// DefaultMode shapes responses when a call does not request a mode.
	DefaultMode config.Mode
}

// Mode resolves the effective response mode for a call. An invalid or
// empty request falls back to the configured default, then to summary.
func (d Deps) Mode(requested string) config.Mode {
	if m := config.Mode(requested); m.IsValid() {
		return m
	}
	if d.DefaultMode.IsValid() {
		return d.DefaultMode
	}
	return config.ModeSummary
}

// Summary is the compact response for fetch tools in summary mode. It
// tells the model what was cached and how to address it, without the text.
type Summary struct {
	// Name is the resource's display name.
	Name string `json:"name"`

	// ResourceType classifies the cached resource.
	ResourceType drive.ResourceType `json:"resource_type"`

	// TextLength is the length of the cached text in characters.
	TextLength int `json:"text_length"`

	// ResourceURI addresses the full cached text.
	ResourceURI string `json:"resource_uri"`

	// Hint tells the model how to read the content incrementally.
	Hint string `json:"hint"`
}

// TextResult wraps plain text in a successful tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult wraps a formatted message in an IsError tool result, which
// surfaces the failure to the calling model instead of the transport.
func ErrorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// JSONResult marshals v and wraps it in a successful tool result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tools: marshal result: %w", err)
	}
	return TextResult(string(data)), nil
}

// Respond caches the fetched content and shapes the tool response.
//
// In summary mode the response is a [Summary] pointing at uri. In full
// mode the response is the flattened text, run through the character
// limit with truncHint appended when content is cut; truncations are
// counted per tool.
func Respond(ctx context.Context, d Deps, tool string, c *drive.Content, mode config.Mode, uri, truncHint string) (*mcp.CallToolResult, error) {
	isNew := d.Cache.Store(c.ID, c.Raw, c.Text, c.Type)
	d.Metrics.RecordCacheStore(ctx, isNew)

	if mode == config.ModeFull {
		res := truncate.Truncate(c.Text, truncate.WithHint(truncHint))
		if res.Truncated {
			d.Metrics.RecordTruncation(ctx, tool)
		}
		return TextResult(res.Text), nil
	}

	return JSONResult(Summary{
		Name:         c.Name,
		ResourceType: c.Type,
		TextLength:   len([]rune(c.Text)),
		ResourceURI:  uri,
		Hint:         fmt.Sprintf("Read %s for the content, or request mode \"full\" to inline it.", uri),
	})
}
