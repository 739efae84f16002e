package docfetch_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/drive/mock"
	"github.com/MrWong99/drivegate/internal/observe"
	"github.com/MrWong99/drivegate/internal/rescache"
	"github.com/MrWong99/drivegate/internal/tools"
	"github.com/MrWong99/drivegate/internal/tools/docfetch"
)

// newDeps builds a Deps bundle around the given mock backend.
func newDeps(t *testing.T, backend *mock.Service) tools.Deps {
	t.Helper()
	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return tools.Deps{
		Backend:     backend,
		BackendName: "mock",
		Cache:       rescache.New(),
		Metrics:     m,
		DefaultMode: config.ModeSummary,
	}
}

// newSession connects an in-memory client to a server with the tool registered.
func newSession(t *testing.T, d tools.Deps) *mcp.ClientSession {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "drivegate-test", Version: "0.0.0"}, nil)
	docfetch.Register(server, d)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
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
	return clientSession
}

// resultText concatenates the text content of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestGetDocument_SummaryMode(t *testing.T) {
	backend := &mock.Service{
		Documents: map[string]*drive.Content{
			"d1": {ID: "d1", Name: "Plan", Type: drive.TypeDocument, Text: "the plan body"},
		},
	}
	d := newDeps(t, backend)
	session := newSession(t, d)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "d1"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, "gdrive://docs/d1/content") {
		t.Errorf("summary should carry the resource URI, got: %s", text)
	}
	if strings.Contains(text, "the plan body") {
		t.Errorf("summary mode must not inline the text, got: %s", text)
	}
	if _, out := d.Cache.Get("d1"); out != rescache.OutcomeHit {
		t.Error("fetch should populate the cache")
	}
}

func TestGetDocument_FullMode(t *testing.T) {
	backend := &mock.Service{
		Documents: map[string]*drive.Content{
			"d1": {ID: "d1", Name: "Plan", Type: drive.TypeDocument, Text: "the plan body"},
		},
	}
	session := newSession(t, newDeps(t, backend))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "d1", "mode": "full"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := resultText(t, res); got != "the plan body" {
		t.Errorf("full mode text = %q", got)
	}
}

func TestGetDocument_MissingID(t *testing.T) {
	session := newSession(t, newDeps(t, &mock.Service{}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("missing document_id should produce a tool error")
	}
	if !strings.Contains(resultText(t, res), "document_id is required") {
		t.Errorf("error text = %q", resultText(t, res))
	}
}

func TestGetDocument_BackendError(t *testing.T) {
	backend := &mock.Service{FetchDocumentErr: errors.New("quota exceeded")}
	session := newSession(t, newDeps(t, backend))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "gdocs_get_document",
		Arguments: map[string]any{"document_id": "d1"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("backend failure should produce a tool error, not a transport error")
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Failed to fetch document d1") || !strings.Contains(text, "quota exceeded") {
		t.Errorf("error text = %q", text)
	}
}
