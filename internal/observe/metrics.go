// Package observe provides the observability primitives of buildcheck:
// OpenTelemetry metrics, tracing, trace-aware structured logging, and HTTP
// middleware for the watch-mode server.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that a long-running
// watch process can be scraped on /metrics. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all buildcheck metrics.
const meterName = "github.com/yongy146/dota-brain-sub002"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// RunDuration tracks the wall-clock time of a whole validation run. Use
	// with attribute.String("verdict", ...).
	RunDuration metric.Float64Histogram

	// CatalogueLoadDuration tracks how long loading both catalogues takes.
	// Use with attribute.String("source", ...).
	CatalogueLoadDuration metric.Float64Histogram

	// --- Counters ---

	// Runs counts finished runs. Use with attribute.String("verdict", ...).
	Runs metric.Int64Counter

	// Records counts validated build records.
	Records metric.Int64Counter

	// Findings counts reported findings. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("severity", ...)
	Findings metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks runs currently in progress.
	ActiveRuns metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...),
	//   attribute.Int("status", ...) and, for /report, attribute.String("format", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for runs
// over datasets of a few hundred heroes.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RunDuration, err = m.Float64Histogram("buildcheck.run.duration",
		metric.WithDescription("Wall-clock duration of a validation run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CatalogueLoadDuration, err = m.Float64Histogram("buildcheck.catalogue.load.duration",
		metric.WithDescription("Duration of loading the ability and item catalogues."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Runs, err = m.Int64Counter("buildcheck.runs",
		metric.WithDescription("Total validation runs by verdict."),
	); err != nil {
		return nil, err
	}
	if met.Records, err = m.Int64Counter("buildcheck.records",
		metric.WithDescription("Total build records validated."),
	); err != nil {
		return nil, err
	}
	if met.Findings, err = m.Int64Counter("buildcheck.findings",
		metric.WithDescription("Total findings by kind and severity."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRuns, err = m.Int64UpDownCounter("buildcheck.active_runs",
		metric.WithDescription("Number of validation runs in progress."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("buildcheck.http.request.duration",
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

// RecordRun records the outcome and duration of a finished run.
func (m *Metrics) RecordRun(ctx context.Context, verdict string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("verdict", verdict))
	m.Runs.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCatalogueLoad records how long a catalogue source took to load.
func (m *Metrics) RecordCatalogueLoad(ctx context.Context, source string, d time.Duration) {
	m.CatalogueLoadDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordFindings adds n findings of one kind and severity.
func (m *Metrics) RecordFindings(ctx context.Context, kind, severity string, n int) {
	m.Findings.Add(ctx, int64(n),
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("severity", severity),
		),
	)
}
