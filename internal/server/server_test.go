package server_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/drive/mock"
	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/rescache"
	"github.com/MrWong99/drivegate/internal/server"
)

// newSession wires a full server with an in-memory client session. The
// returned reader collects the metrics the session produced.
func newSession(t *testing.T, backend *mock.Service, cache *rescache.Cache) (*mcp.ClientSession, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	srv := server.New(server.Options{
		Version:     "test",
		Backend:     backend,
		BackendName: "mock",
		Cache:       cache,
		Metrics:     m,
		DefaultMode: config.ModeSummary,
	})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	serverSession, err := srv.MCP().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession, reader
}

// metricSum adds up the int64 data points of the named counter, or
// returns 0 when the instrument has not recorded yet.
func metricSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestListTools(t *testing.T) {
	session, _ := newSession(t, &mock.Service{}, rescache.New())

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"gdocs_get_document":      false,
		"gsheets_get_spreadsheet": false,
		"sheets_batchGetValues":   false,
		"gdrive_read_file":        false,
		"resource_cache_stats":    false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestFetchThenReadResource(t *testing.T) {
	backend := &mock.Service{
		Documents: map[string]*drive.Content{
			"doc123": {ID: "doc123", Name: "Test", Type: drive.TypeDocument, Text: "Hello, World! This is a test document."},
		},
	}
	session, _ := newSession(t, backend, rescache.New())
	ctx := context.Background()

	if _, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "doc123"},
	}); err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "gdrive://docs/doc123/chunk/0-5"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(res.Contents))
	}
	if res.Contents[0].Text != "Hello" {
		t.Errorf("chunk text = %q, want %q", res.Contents[0].Text, "Hello")
	}
	if res.Contents[0].MIMEType != "text/plain" {
		t.Errorf("MIME type = %q", res.Contents[0].MIMEType)
	}
}

func TestReadResource_CacheMiss(t *testing.T) {
	session, _ := newSession(t, &mock.Service{}, rescache.New())

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "gdrive://docs/ghost/content"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if res.Contents[0].MIMEType != "application/json" {
		t.Fatalf("MIME type = %q, want application/json", res.Contents[0].MIMEType)
	}

	var payload struct {
		Error string `json:"error"`
		Hint  string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &payload); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if !strings.Contains(payload.Error, "Cache miss for resource: ghost") {
		t.Errorf("Error = %q", payload.Error)
	}
	if !strings.Contains(payload.Hint, "gdocs_get_document") {
		t.Errorf("Hint = %q, want tool guidance", payload.Hint)
	}
}

func TestReadResource_ExpiredEntryEvictsAndZerosGauge(t *testing.T) {
	backend := &mock.Service{
		Documents: map[string]*drive.Content{
			"doc1": {ID: "doc1", Name: "Doc", Type: drive.TypeDocument, Text: "body"},
		},
	}

	base := time.Now()
	var offset atomic.Int64
	cache := rescache.NewWithClock(func() time.Time {
		return base.Add(time.Duration(offset.Load()))
	})

	session, reader := newSession(t, backend, cache)
	ctx := context.Background()

	if _, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "doc1"},
	}); err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := metricSum(t, reader, "drivegate.cache.entries"); got != 1 {
		t.Fatalf("cache.entries after fetch = %d, want 1", got)
	}

	// A read past the TTL is a miss that deletes the entry on the spot.
	offset.Store(int64(rescache.TTL + time.Minute))
	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "gdrive://docs/doc1/content"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "Cache miss for resource: doc1") {
		t.Fatalf("payload = %q, want a cache miss", res.Contents[0].Text)
	}

	if got := metricSum(t, reader, "drivegate.cache.misses"); got != 1 {
		t.Errorf("cache.misses = %d, want 1", got)
	}
	if got := metricSum(t, reader, "drivegate.cache.evictions"); got != 1 {
		t.Errorf("cache.evictions = %d, want 1", got)
	}
	if got := metricSum(t, reader, "drivegate.cache.entries"); got != 0 {
		t.Errorf("cache.entries after lazy eviction = %d, want 0", got)
	}
}

func TestReadResource_HitRecordsCacheHit(t *testing.T) {
	backend := &mock.Service{
		Documents: map[string]*drive.Content{
			"doc1": {ID: "doc1", Name: "Doc", Type: drive.TypeDocument, Text: "body"},
		},
	}
	session, reader := newSession(t, backend, rescache.New())
	ctx := context.Background()

	if _, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "doc1"},
	}); err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if _, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "gdrive://docs/doc1/content"}); err != nil {
		t.Fatalf("ReadResource: %v", err)
	}

	if got := metricSum(t, reader, "drivegate.cache.hits"); got != 1 {
		t.Errorf("cache.hits = %d, want 1", got)
	}
	if got := metricSum(t, reader, "drivegate.cache.misses"); got != 0 {
		t.Errorf("cache.misses = %d, want 0", got)
	}
}

func TestReadResource_LegacyHint(t *testing.T) {
	session, _ := newSession(t, &mock.Service{}, rescache.New())

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "gdrive:///oldid"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}

	var payload struct {
		Error string `json:"error"`
		Hint  string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &payload); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if payload.Error != "" {
		t.Errorf("legacy read should not carry an error, got %q", payload.Error)
	}
	if !strings.Contains(payload.Hint, "Legacy URI format") {
		t.Errorf("Hint = %q", payload.Hint)
	}
}

func TestReadResource_InvalidURI(t *testing.T) {
	session, _ := newSession(t, &mock.Service{}, rescache.New())

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "gdrive://docs/abc/chunk/9-3"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &payload); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if !strings.Contains(payload.Error, "end index must be greater than start index") {
		t.Errorf("Error = %q", payload.Error)
	}
}
