// Package app wires the buildcheck subsystems into the long-running watch
// mode.
//
// The App owns the full lifecycle: New loads the config and starts watching
// it together with the input files it names, Run validates once, serves the
// health, report and metrics endpoints, and re-validates whenever a watched
// file changes. Run returns after ctx is cancelled and the HTTP server has
// shut down.
//
// For testing, inject test doubles via functional options (WithValidators,
// WithGatherer, etc.).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yongy146/dota-brain-sub002/internal/config"
	"github.com/yongy146/dota-brain-sub002/internal/health"
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/observe"
	"github.com/yongy146/dota-brain-sub002/internal/orchestrator"
	"github.com/yongy146/dota-brain-sub002/internal/report"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

// shutdownTimeout bounds the graceful HTTP shutdown after ctx is cancelled.
const shutdownTimeout = 15 * time.Second

// App is the watch-mode application.
type App struct {
	configPath string
	registry   *config.Registry
	watcher    *config.Watcher

	level      *slog.LevelVar
	metrics    *observe.Metrics
	gatherer   prometheus.Gatherer
	latest     *health.Latest
	checkers   []health.Checker
	validators []validate.Validator
	watchOpts  []config.WatcherOption

	// wake is signalled by the watcher; pending runs coalesce into one.
	wake chan struct{}

	mu          sync.Mutex
	inputsDirty bool
	addr        net.Addr
	listening   chan struct{}
}

// Option is a functional option for New.
type Option func(*App)

// WithLevelVar sets the level variable of the process logger so config
// reloads can change the log level without a restart.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithGatherer sets the registry served on /metrics. Defaults to
// [prometheus.DefaultGatherer].
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// WithCheckers adds readiness checks, such as a database ping.
func WithCheckers(cs ...health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, cs...) }
}

// WithValidators replaces the default validator set of every run.
func WithValidators(vs ...validate.Validator) Option {
	return func(a *App) { a.validators = vs }
}

// WithWatcherOptions passes options through to [config.NewWatcher].
func WithWatcherOptions(opts ...config.WatcherOption) Option {
	return func(a *App) { a.watchOpts = append(a.watchOpts, opts...) }
}

// New creates an App. configPath may be empty, in which case the defaults
// are used and only the input files are watched. The registry provides the
// catalogue source of every run.
func New(configPath string, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		configPath: configPath,
		registry:   reg,
		latest:     &health.Latest{},
		wake:       make(chan struct{}, 1),
		listening:  make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.DefaultGatherer
	}

	w, err := config.NewWatcher(configPath, a.notify, a.watchOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.watcher = w
	a.level.Set(w.Current().Log.Level.Level())
	return a, nil
}

// Handler returns the HTTP handler of watch mode: the health and report
// endpoints plus /metrics, wrapped in the observability middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	health.New(a.latest, a.checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	return observe.Middleware(a.metrics)(mux)
}

// Latest returns the outcome of the most recent run.
func (a *App) Latest() (*report.Report, time.Time, error) {
	return a.latest.Load()
}

// Addr returns the address the HTTP server listens on. It blocks until Run
// has bound the listener or ctx is done.
func (a *App) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-a.listening:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run serves HTTP and validates until ctx is cancelled. It returns nil on a
// clean shutdown.
func (a *App) Run(ctx context.Context) error {
	defer a.watcher.Stop()

	cfg := a.watcher.Current()
	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen on %s: %w", cfg.Server.ListenAddr, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()
	close(a.listening)

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("watch mode listening", "addr", ln.Addr().String(), "watched", len(a.watcher.Paths()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.loop(gctx, cfg)
		return nil
	})

	err = g.Wait()
	slog.Info("watch mode stopped")
	return err
}

// loop runs one validation immediately and one per coalesced change.
func (a *App) loop(ctx context.Context, applied *config.Config) {
	a.validate(ctx, applied)

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}

		cfg := a.watcher.Current()
		a.mu.Lock()
		dirty := a.inputsDirty
		a.inputsDirty = false
		a.mu.Unlock()

		d := config.Diff(applied, cfg)
		if d.LogLevelChanged {
			a.level.Set(d.NewLogLevel.Level())
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		for _, field := range d.RestartRequired {
			slog.Warn("config change requires a restart to take effect", "field", field)
		}
		applied = cfg

		if dirty || d.NeedsRerun() {
			a.validate(ctx, cfg)
		}
	}
}

// notify is the watcher callback. It must not block the poll goroutine.
func (a *App) notify(ev config.Event) {
	a.mu.Lock()
	for _, p := range ev.Paths {
		if p != a.configPath {
			a.inputsDirty = true
		}
	}
	a.mu.Unlock()

	slog.Debug("watched files changed", "paths", ev.Paths, "config_reloaded", ev.ConfigChanged())
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// validate runs one validation with cfg and publishes the outcome.
func (a *App) validate(ctx context.Context, cfg *config.Config) {
	rep, err := a.runOnce(ctx, cfg)
	if ctx.Err() != nil {
		return
	}
	a.latest.Store(rep, err, time.Now())

	switch {
	case rep == nil:
		slog.Error("validation could not run", "err", err)
	case err != nil:
		slog.Error("validation aborted", "verdict", rep.Verdict, "err", err)
	case !rep.Passed():
		slog.Warn("validation failed", "errors", rep.Stats.Errors, "warnings", rep.Stats.Warnings)
	default:
		slog.Info("validation passed", "records", rep.Stats.Records, "warnings", rep.Stats.Warnings)
	}
}

func (a *App) runOnce(ctx context.Context, cfg *config.Config) (*report.Report, error) {
	if err := config.ValidateInputs(cfg); err != nil {
		return nil, err
	}
	src, err := a.registry.CreateSource(cfg.Inputs)
	if err != nil {
		return nil, err
	}
	ds, err := herobuild.LoadCatalogFile(cfg.Inputs.Dataset)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithWorkers(cfg.Run.Workers),
		orchestrator.WithTimeout(cfg.Run.Timeout),
		orchestrator.WithRules(cfg.Rules.Rules()),
		orchestrator.WithMetrics(a.metrics),
	}
	if a.validators != nil {
		opts = append(opts, orchestrator.WithValidators(a.validators...))
	}
	return orchestrator.New(src, opts...).Run(ctx, ds)
}
