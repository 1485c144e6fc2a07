package observe

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yongy146/dota-brain-sub002/internal/report"
)

// routeOther labels every path the watch server does not serve.
const routeOther = "other"

// routes are the paths served in watch mode. The value marks routes polled
// by orchestrators and scrapers, whose successful requests log at debug.
var routes = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
	"/report":  false,
}

// route maps a request path onto a served route or [routeOther], keeping the
// span and metric label set bounded.
func route(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return routeOther
}

// reportFormat is the format a /report request asks for, "invalid" when
// the handler will reject it.
func reportFormat(r *http.Request) string {
	q := r.URL.Query().Get("format")
	if q == "" {
		return string(report.FormatJSON)
	}
	f, err := report.ParseFormat(q)
	if err != nil {
		return "invalid"
	}
	return string(f)
}

// statusWriter remembers the status code the handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware instruments the watch-mode server. Each request runs in a server
// span continuing any W3C trace context of the caller, the trace ID comes
// back as X-Correlation-ID, and the duration is recorded to
// [Metrics.HTTPRequestDuration] under its method, route and status. Requests
// for /report also carry the requested report format.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rt := route(r.URL.Path)

			attrs := []attribute.KeyValue{
				attribute.String("method", r.Method),
				attribute.String("route", rt),
			}
			if rt == "/report" {
				attrs = append(attrs, attribute.String("format", reportFormat(r)))
			}

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, r.Method+" "+rt,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRoute(rt),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			elapsed := time.Since(start)
			span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status))
			m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
				metric.WithAttributes(append(attrs, attribute.Int("status", sw.status))...))

			level := slog.LevelInfo
			if routes[rt] && sw.status < http.StatusBadRequest {
				level = slog.LevelDebug
			}
			logAttrs := []slog.Attr{
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", elapsed),
			}
			if rt == "/report" {
				logAttrs = append(logAttrs, slog.String("format", reportFormat(r)))
			}
			slog.LogAttrs(ctx, level, "request completed", logAttrs...)
		})
	}
}
