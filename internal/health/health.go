// Package health provides the HTTP health and report handlers of watch mode.
//
// The package exposes three endpoints:
//
//   - /healthz: liveness check; always returns 200 OK.
//   - /readyz: readiness check; returns 200 only when the latest validation
//     run passed and every extra [Checker] passes.
//   - /report: the latest report, rendered as JSON (default), YAML or text
//     according to the "format" query parameter.
//
// Health responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "checks" map containing the result of each named checker.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yongy146/dota-brain-sub002/internal/report"
)

// checkTimeout is the maximum time a single readiness check may take before
// the context is cancelled.
const checkTimeout = 5 * time.Second

// Checker is a named health check function. The Check function should return
// nil when the dependency is healthy and a non-nil error describing the
// failure otherwise.
type Checker struct {
	// Name is a short label for this check (e.g. "postgres"). It appears as a
	// key in the JSON response.
	Name string

	// Check tests the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// result is the JSON response body for health endpoints.
type result struct {
	Status  string            `json:"status"`
	Verdict report.Verdict    `json:"verdict,omitempty"`
	LastRun *time.Time        `json:"last_run,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Handler serves the watch-mode endpoints. It is safe for concurrent use;
// the checker list is fixed at construction time.
type Handler struct {
	latest   *Latest
	checkers []Checker
}

// New creates a [Handler] that reports on latest and evaluates the given
// extra checkers on each /readyz request, sequentially in the order provided.
func New(latest *Latest, checkers ...Checker) *Handler {
	c := make([]Checker, 0, len(checkers)+1)
	c = append(c, Checker{Name: "report", Check: latest.Check})
	c = append(c, checkers...)
	return &Handler{latest: latest, checkers: c}
}

// Healthz is a liveness check that always returns 200 OK. A running process
// that can serve HTTP is considered alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz is a readiness check that returns 200 only when every [Checker]
// passes, the latest-report check included. Each checker is given a context
// with a [checkTimeout] deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{
		Status: "ok",
		Checks: checks,
	}
	if rep, at, _ := h.latest.Load(); !at.IsZero() {
		res.LastRun = &at
		if rep != nil {
			res.Verdict = rep.Verdict
		}
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Report renders the latest report. It returns 503 until a run has produced
// a report and 400 for an unknown format.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	format := report.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	rep, _, runErr := h.latest.Load()
	if rep == nil {
		msg := "no report yet"
		if runErr != nil {
			msg = runErr.Error()
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}

	switch format {
	case report.FormatJSON:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	case report.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_ = report.Render(w, rep, format)
}

// Register adds the /healthz, /readyz and /report routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /report", h.Report)
}

// errNoReport is the readiness failure before the first run finished.
var errNoReport = errors.New("no validation run has finished yet")

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
