// Package orchestrator runs one complete validation: it loads the catalogues,
// normalises the dataset, fans every hero and build record out to a pool of
// workers, and hands the per-worker findings to a [report.Aggregator].
//
// Catalogue loading is the single synchronisation point. Nothing is validated
// until both catalogues have loaded completely, and a load failure aborts the
// run with one CatalogueLoadError and no other findings.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/observe"
	"github.com/yongy146/dota-brain-sub002/internal/report"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

var (
	// ErrTimedOut is returned when a run exceeds its wall-clock budget.
	ErrTimedOut = errors.New("orchestrator: validation timed out")

	// ErrTooling is returned when a validator fails in a way that says
	// nothing about the data, such as a panic.
	ErrTooling = errors.New("orchestrator: tooling error")
)

// Orchestrator runs validations. It holds no per-run state, so one value may
// run any number of validations, including concurrently.
type Orchestrator struct {
	src        catalogue.Source
	workers    int
	timeout    time.Duration
	rules      validate.Rules
	validators []validate.Validator
	metrics    *observe.Metrics
}

// Option configures an [Orchestrator] during construction.
type Option func(*Orchestrator)

// WithWorkers sets the number of concurrent record workers. Values below 1
// select runtime.GOMAXPROCS(0), which is the default.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout sets the wall-clock budget of a run, catalogue loading
// included. Zero disables the budget.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithRules replaces [validate.DefaultRules].
func WithRules(r validate.Rules) Option {
	return func(o *Orchestrator) { o.rules = r }
}

// WithValidators replaces [validate.Default]. Validators run in the order
// given.
func WithValidators(vs ...validate.Validator) Option {
	return func(o *Orchestrator) { o.validators = vs }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New returns an orchestrator that loads its catalogues from src.
func New(src catalogue.Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		src:        src,
		workers:    runtime.GOMAXPROCS(0),
		rules:      validate.DefaultRules(),
		validators: validate.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// job addresses one unit of work: a hero's own data when build is -1,
// otherwise one of its build records.
type job struct {
	hero  int
	build int
}

// Run validates ds and returns its report.
//
// The returned error is nil for completed runs, pass or fail alike. Aborted
// runs return both the aborted report and an error: one wrapping
// [*catalogue.CatalogueLoadError] when a catalogue failed to load,
// [ErrTimedOut] when the budget ran out, [ErrTooling] when a validator
// panicked, or the context error when ctx was cancelled. Invalid rules are
// reported without a report.
func (o *Orchestrator) Run(ctx context.Context, ds *herobuild.Catalog) (*report.Report, error) {
	if err := o.rules.Check(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "buildcheck.run")
	defer span.End()

	o.metrics.ActiveRuns.Add(ctx, 1)
	defer o.metrics.ActiveRuns.Add(ctx, -1)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	agg := report.NewAggregator()
	if err := agg.Start(); err != nil {
		return nil, err
	}

	r, err := o.run(ctx, agg, ds)
	if err != nil {
		observe.FailSpan(span, err)
	}
	if r != nil {
		span.SetAttributes(
			attribute.String("buildcheck.verdict", string(r.Verdict)),
			attribute.Int("buildcheck.records", r.Stats.Records),
			attribute.Int("buildcheck.errors", r.Stats.Errors),
			attribute.Int("buildcheck.warnings", r.Stats.Warnings),
		)
		o.record(ctx, r, time.Since(start))
	}
	return r, err
}

func (o *Orchestrator) run(ctx context.Context, agg *report.Aggregator, ds *herobuild.Catalog) (*report.Report, error) {
	log := observe.Logger(ctx)

	cats, err := o.load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return o.interrupted(ctx, agg, ctx.Err())
		}
		log.Error("catalogue load failed", "err", err)
		r, aerr := agg.Abort(validate.Fatal(validate.KindCatalogueLoad, err))
		if aerr != nil {
			return nil, aerr
		}
		return r, fmt.Errorf("orchestrator: %w", err)
	}

	nc := herobuild.Normalize(ds)
	vc := validate.NewContext(cats, o.rules)

	jobs := make(chan job, len(nc.Heroes)+nc.RecordCount())
	for hi := range nc.Heroes {
		jobs <- job{hero: hi, build: validate.HeroLevel}
		for bi := range nc.Heroes[hi].Records {
			jobs <- job{hero: hi, build: bi}
		}
	}
	close(jobs)

	workers := min(o.workers, max(cap(jobs), 1))
	// One buffer per worker plus one for catalogue-wide checks.
	buffers := make([][]validate.Finding, workers+1)
	buffers[workers] = validate.GuideLinks(nc)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("%w: validator panicked: %v", ErrTooling, p)
				}
			}()
			for j := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				buffers[w] = append(buffers[w], o.check(vc, nc, j)...)
			}
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		// The budget covers the whole run, including the last record.
		err = ctx.Err()
	}

	switch {
	case errors.Is(err, ErrTooling):
		log.Error("validation aborted", "err", err)
		r, aerr := agg.Abort(validate.Fatal(validate.KindToolingError, err))
		if aerr != nil {
			return nil, aerr
		}
		return r, err
	case err != nil:
		return o.interrupted(ctx, agg, err)
	}

	if err := agg.Collect(buffers...); err != nil {
		return nil, err
	}
	r, err := agg.Complete(len(nc.Heroes), nc.RecordCount())
	if err != nil {
		return nil, err
	}
	log.Info("validation finished",
		"verdict", r.Verdict,
		"heroes", r.Stats.Heroes,
		"records", r.Stats.Records,
		"errors", r.Stats.Errors,
		"warnings", r.Stats.Warnings,
	)
	return r, nil
}

func (o *Orchestrator) load(ctx context.Context) (*catalogue.Catalogues, error) {
	lctx, span := observe.StartSpan(ctx, "buildcheck.catalogue.load")
	defer span.End()

	start := time.Now()
	cats, err := o.src.Load(lctx)
	o.metrics.RecordCatalogueLoad(ctx, sourceName(o.src), time.Since(start))
	if err != nil {
		observe.FailSpan(span, err)
		return nil, err
	}
	abilities, items := cats.Size()
	observe.Logger(ctx).Debug("catalogues loaded", "abilities", abilities, "items", items)
	return cats, nil
}

// interrupted aborts a run stopped by its context: a deadline becomes a
// ValidationTimedOut finding, a cancellation a ToolingError.
func (o *Orchestrator) interrupted(ctx context.Context, agg *report.Aggregator, cause error) (*report.Report, error) {
	var (
		f   validate.Finding
		err error
	)
	if errors.Is(cause, context.DeadlineExceeded) {
		err = ErrTimedOut
		if o.timeout > 0 {
			err = fmt.Errorf("%w after %s", ErrTimedOut, o.timeout)
		}
		f = validate.Fatal(validate.KindValidationTimedOut, errors.New(strings.TrimPrefix(err.Error(), "orchestrator: ")))
	} else {
		err = fmt.Errorf("orchestrator: %w", cause)
		f = validate.Fatal(validate.KindToolingError, fmt.Errorf("validation interrupted: %w", cause))
	}
	observe.Logger(ctx).Warn("validation aborted", "err", err)
	r, aerr := agg.Abort(f)
	if aerr != nil {
		return nil, aerr
	}
	return r, err
}

func (o *Orchestrator) check(vc *validate.Context, nc *herobuild.NormalizedCatalog, j job) []validate.Finding {
	h := &nc.Heroes[j.hero]
	var out []validate.Finding
	for _, v := range o.validators {
		if j.build == validate.HeroLevel {
			out = append(out, v.ValidateHero(vc, h)...)
			continue
		}
		out = append(out, v.ValidateBuild(vc, &h.Records[j.build])...)
	}
	return out
}

func (o *Orchestrator) record(ctx context.Context, r *report.Report, d time.Duration) {
	o.metrics.Records.Add(ctx, int64(r.Stats.Records))

	type key struct {
		kind     validate.Kind
		severity validate.Severity
	}
	counts := make(map[key]int)
	for _, f := range r.Findings {
		counts[key{f.Kind, f.Severity}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].kind < keys[j].kind })
	for _, k := range keys {
		o.metrics.RecordFindings(ctx, string(k.kind), string(k.severity), counts[k])
	}
	o.metrics.RecordRun(ctx, string(r.Verdict), d)
}

func sourceName(src catalogue.Source) string {
	if n, ok := src.(interface{ SourceName() string }); ok {
		return n.SourceName()
	}
	switch src.(type) {
	case catalogue.FileSource, *catalogue.FileSource:
		return "file"
	case *catalogue.PostgresSource:
		return "postgres"
	}
	return "custom"
}
