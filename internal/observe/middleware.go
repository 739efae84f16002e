package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// sessionHeader is the header the streamable HTTP transport uses to key
// MCP sessions.
const sessionHeader = "Mcp-Session-Id"

// mcpResponseWriter wraps [http.ResponseWriter] to capture the status
// code written by the MCP handler.
type mcpResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *mcpResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer. The streamable HTTP transport
// streams responses as SSE; the wrapper must not swallow flushes.
func (w *mcpResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware instruments the streamable HTTP MCP endpoint: one server
// span per request, the request-duration histogram, and a completion log
// line carrying the MCP session ID when the transport has assigned one.
//
// W3C trace context from the client is honoured, so MCP clients that
// send traceparent get a connected trace, and the trace ID is echoed
// back as X-Correlation-ID either way.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := StartSpan(ctx, "mcp "+r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rec := &mcpResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("path", r.URL.Path),
				),
			)
			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.status))

			// The client sends the session ID on follow-up requests; on
			// the initialize request the transport assigns it in the
			// response instead.
			session := r.Header.Get(sessionHeader)
			if session == "" {
				session = rec.Header().Get(sessionHeader)
			}
			if session != "" {
				span.SetAttributes(attribute.String("mcp.session.id", session))
			}

			slog.LogAttrs(ctx, slog.LevelInfo, "mcp request served",
				slog.String("trace_id", cid),
				slog.String("session_id", session),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", duration),
			)
		})
	}
}
