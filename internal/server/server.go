// Package server assembles the Drivegate MCP server: tool registration,
// gdrive:// resource templates, and the transport it is served over.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/rescache"
	"github.com/MrWong99/drivegate/internal/resource"
	"github.com/MrWong99/drivegate/internal/tools"
	"github.com/MrWong99/drivegate/internal/tools/cachetool"
	"github.com/MrWong99/drivegate/internal/tools/docfetch"
	"github.com/MrWong99/drivegate/internal/tools/filefetch"
	"github.com/MrWong99/drivegate/internal/tools/sheetfetch"
)

// Name is the MCP server implementation name announced to clients.
const Name = "drivegate"

// Options configures a [Server].
type Options struct {
	// Version is the implementation version announced to clients.
	Version string

	// Backend fetches content from the configured drive service.
	Backend drive.Service

	// BackendName labels fetch metrics (e.g. "localdir").
	BackendName string

	// Cache is the shared resource cache.
	Cache *rescache.Cache

	// Metrics records tool calls and resource reads. When nil,
	// [observe.DefaultMetrics] is used.
	Metrics *observe.Metrics

	// DefaultMode shapes fetch tool responses when a call does not request
	// a mode.
	DefaultMode config.Mode
}

// Server is the assembled MCP server ready to run over a transport.
type Server struct {
	mcp     *mcp.Server
	serving *resource.Server
	metrics *observe.Metrics
}

// New builds a Server with all tools and resource templates registered.
func New(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}

	s := &Server{
		mcp:     mcp.NewServer(&mcp.Implementation{Name: Name, Version: opts.Version}, nil),
		serving: resource.NewServer(opts.Cache),
		metrics: opts.Metrics,
	}

	deps := tools.Deps{
		Backend:     opts.Backend,
		BackendName: opts.BackendName,
		Cache:       opts.Cache,
		Metrics:     opts.Metrics,
		DefaultMode: opts.DefaultMode,
	}
	docfetch.Register(s.mcp, deps)
	sheetfetch.Register(s.mcp, deps)
	filefetch.Register(s.mcp, deps)
	cachetool.Register(s.mcp, deps)

	s.registerResources()
	return s
}

// MCP exposes the underlying SDK server, mainly for tests that connect an
// in-memory client.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// resourceTemplates declares every gdrive:// form the server answers.
var resourceTemplates = []*mcp.ResourceTemplate{
	{
		URITemplate: "gdrive:///{fileId}",
		Name:        "drive-legacy",
		Description: "Deprecated legacy form. Use the typed gdrive://docs|sheets|files URIs instead.",
		MIMEType:    "application/json",
	},
	{
		URITemplate: "gdrive://docs/{id}/content",
		Name:        "doc-content",
		Description: "Full flattened text of a cached document.",
		MIMEType:    "text/plain",
	},
	{
		URITemplate: "gdrive://docs/{id}/chunk/{range}",
		Name:        "doc-chunk",
		Description: "Character range {start}-{end} of a cached document.",
		MIMEType:    "text/plain",
	},
	{
		URITemplate: "gdrive://docs/{id}/structure",
		Name:        "doc-structure",
		Description: "Structural outline of a cached document.",
		MIMEType:    "application/json",
	},
	{
		URITemplate: "gdrive://sheets/{id}/values/{range}",
		Name:        "sheet-values",
		Description: "Cell values of a cached spreadsheet for a URL-encoded A1 range.",
		MIMEType:    "application/json",
	},
	{
		URITemplate: "gdrive://files/{id}/content",
		Name:        "file-content",
		Description: "Full text of a cached file, or a character range with a trailing {start}-{end} segment.",
		MIMEType:    "text/plain",
	},
}

func (s *Server) registerResources() {
	for _, tmpl := range resourceTemplates {
		s.mcp.AddResourceTemplate(tmpl, s.readResource)
	}
}

// errorPayload is the JSON body served for reads that yield no content.
type errorPayload struct {
	Error string `json:"error,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// readResource answers a gdrive:// read from the cache. Failures are
// served as application/json payloads rather than protocol errors so the
// client model can read the hint and recover.
func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	log := observe.Logger(ctx)

	parsed, err := resource.Parse(uri)
	if err != nil {
		s.metrics.RecordResourceRead(ctx, "invalid", "error")
		log.Warn("resource URI rejected", "uri", uri, "error", err)
		return jsonContents(uri, errorPayload{Error: err.Error()})
	}

	res := s.serving.Serve(parsed)
	switch res.Cache {
	case rescache.OutcomeHit:
		s.metrics.RecordCacheHit(ctx)
	case rescache.OutcomeMiss:
		s.metrics.RecordCacheMiss(ctx, false)
	case rescache.OutcomeExpired:
		s.metrics.RecordCacheMiss(ctx, true)
	}

	switch {
	case res.OK:
		s.metrics.RecordResourceRead(ctx, string(parsed.Kind), "hit")
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "text/plain", Text: res.Content},
			},
		}, nil
	case res.Err == "":
		// Legacy form: a hint without an error.
		s.metrics.RecordResourceRead(ctx, string(parsed.Kind), "legacy")
		return jsonContents(uri, errorPayload{Hint: res.Hint})
	default:
		s.metrics.RecordResourceRead(ctx, string(parsed.Kind), "miss")
		log.Debug("resource read unserved", "uri", uri, "reason", res.Err)
		return jsonContents(uri, errorPayload{Error: res.Err, Hint: res.Hint})
	}
}

func jsonContents(uri string, payload errorPayload) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("server: marshal resource payload: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// Run serves MCP over the configured transport until ctx is cancelled.
//
// For stdio the call blocks on the single session. For streamable-http it
// starts an HTTP listener wrapped in the observability middleware and
// shuts it down gracefully when ctx ends.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	transport := cfg.Transport
	if transport == "" {
		transport = config.TransportStdio
	}

	switch transport {
	case config.TransportStdio:
		return s.mcp.Run(ctx, &mcp.StdioTransport{})

	case config.TransportStreamableHTTP:
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.mcp
		}, nil)

		mux := http.NewServeMux()
		mux.Handle("/mcp", observe.Middleware(s.metrics)(handler))

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: mux,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server: shutdown: %w", err)
			}
			return ctx.Err()
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server: listen on %q: %w", cfg.ListenAddr, err)
		}

	default:
		return fmt.Errorf("server: unsupported transport %q", transport)
	}
}
