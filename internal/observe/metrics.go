// Package observe provides application-wide observability primitives for
// Drivegate: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Drivegate metrics.
const meterName = "github.com/MrWong99/drivegate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// FetchDuration tracks backend fetch latency. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("type", ...), attribute.String("status", ...)
	FetchDuration metric.Float64Histogram

	// --- Counters ---

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ResourceReads counts resource URI reads. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	ResourceReads metric.Int64Counter

	// CacheHits counts cache reads that returned a live entry.
	CacheHits metric.Int64Counter

	// CacheMisses counts cache reads that found nothing or an expired entry.
	CacheMisses metric.Int64Counter

	// CacheEvictions counts entries removed by expiry, lazily or by sweep.
	CacheEvictions metric.Int64Counter

	// Truncations counts responses that exceeded the character limit. Use
	// with attribute: attribute.String("tool", ...)
	Truncations metric.Int64Counter

	// --- Gauges ---

	// CacheEntries tracks the number of entries currently cached.
	CacheEntries metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for remote API fetch latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.FetchDuration, err = m.Float64Histogram("drivegate.fetch.duration",
		metric.WithDescription("Latency of backend content fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ToolCalls, err = m.Int64Counter("drivegate.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ResourceReads, err = m.Int64Counter("drivegate.resource.reads",
		metric.WithDescription("Total resource URI reads by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.CacheHits, err = m.Int64Counter("drivegate.cache.hits",
		metric.WithDescription("Total cache reads that returned a live entry."),
	); err != nil {
		return nil, err
	}
	if met.CacheMisses, err = m.Int64Counter("drivegate.cache.misses",
		metric.WithDescription("Total cache reads that found nothing or an expired entry."),
	); err != nil {
		return nil, err
	}
	if met.CacheEvictions, err = m.Int64Counter("drivegate.cache.evictions",
		metric.WithDescription("Total cache entries removed by expiry."),
	); err != nil {
		return nil, err
	}
	if met.Truncations, err = m.Int64Counter("drivegate.truncations",
		metric.WithDescription("Total responses truncated to the character limit, by tool."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.CacheEntries, err = m.Int64UpDownCounter("drivegate.cache.entries",
		metric.WithDescription("Number of entries currently in the resource cache."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("drivegate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordResourceRead is a convenience method that records a resource read
// counter increment with the standard attribute set.
func (m *Metrics) RecordResourceRead(ctx context.Context, kind, status string) {
	m.ResourceReads.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordFetch is a convenience method that records a backend fetch duration
// with the standard attribute set.
func (m *Metrics) RecordFetch(ctx context.Context, backend, resourceType, status string, seconds float64) {
	m.FetchDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("type", resourceType),
			attribute.String("status", status),
		),
	)
}

// RecordCacheHit records a cache read that returned a live entry.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	m.CacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a cache read that found nothing. When the read
// deleted an expired entry on the way (lazy eviction), lazyEvicted also
// counts the eviction and drops the entry gauge so it cannot drift.
func (m *Metrics) RecordCacheMiss(ctx context.Context, lazyEvicted bool) {
	m.CacheMisses.Add(ctx, 1)
	if lazyEvicted {
		m.RecordEvictions(ctx, 1)
	}
}

// RecordCacheStore records a store into the cache, adjusting the entry gauge
// only when the key was new.
func (m *Metrics) RecordCacheStore(ctx context.Context, isNew bool) {
	if isNew {
		m.CacheEntries.Add(ctx, 1)
	}
}

// RecordEvictions records n entries removed by expiry and decrements the
// entry gauge accordingly.
func (m *Metrics) RecordEvictions(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.CacheEvictions.Add(ctx, int64(n))
	m.CacheEntries.Add(ctx, -int64(n))
}

// RecordTruncation is a convenience method that records a truncation counter
// increment for the given tool.
func (m *Metrics) RecordTruncation(ctx context.Context, tool string) {
	m.Truncations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}
