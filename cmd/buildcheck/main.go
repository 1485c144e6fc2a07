// Command buildcheck validates the hero build dataset against the ability and
// item catalogues.
//
// Usage:
//
//	buildcheck validate [flags]          validate once and print the report
//	buildcheck watch [flags]             re-validate on change and serve HTTP
//	buildcheck catalogue import [flags]  upsert file catalogues into PostgreSQL
//
// Exit codes: 0 pass, 1 data errors, 2 fatal load or config error, 3 timed
// out or tooling error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/yongy146/dota-brain-sub002/internal/app"
	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
	"github.com/yongy146/dota-brain-sub002/internal/config"
	"github.com/yongy146/dota-brain-sub002/internal/health"
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/observe"
	"github.com/yongy146/dota-brain-sub002/internal/orchestrator"
	"github.com/yongy146/dota-brain-sub002/internal/report"
	"github.com/yongy146/dota-brain-sub002/internal/resilience"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const (
	exitPass    = 0
	exitFail    = 1
	exitFatal   = 2
	exitTooling = 3
)

const usage = `usage: buildcheck <command> [flags]

commands:
  validate           validate the dataset once and print the report
  watch              re-validate on every change and serve /healthz, /readyz, /report, /metrics
  catalogue import   upsert the file catalogues into PostgreSQL

run "buildcheck <command> -h" for the flags of a command
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitFatal
	}

	switch args[0] {
	case "validate":
		return runValidate(ctx, args[1:], stdout, stderr)
	case "watch":
		return runWatch(ctx, args[1:], stderr)
	case "catalogue":
		if len(args) < 2 || args[1] != "import" {
			fmt.Fprint(stderr, "usage: buildcheck catalogue import -abilities f -items f -postgres dsn\n")
			return exitFatal
		}
		return runImport(ctx, args[2:], stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitPass
	default:
		fmt.Fprintf(stderr, "buildcheck: unknown command %q\n\n%s", args[0], usage)
		return exitFatal
	}
}

// ── Flags ─────────────────────────────────────────────────────────────────────

// options holds the command-line flags shared by the sub-commands. Only
// flags given explicitly override the config file.
type options struct {
	fs *flag.FlagSet

	configPath string
	dataset    string
	abilities  string
	items      string
	postgres   string
	logLevel   string
	workers    int
	timeout    time.Duration

	format   string
	listen   string
	interval time.Duration
}

func newOptions(name string, stderr io.Writer) *options {
	o := &options{fs: flag.NewFlagSet("buildcheck "+name, flag.ContinueOnError)}
	o.fs.SetOutput(stderr)
	o.fs.StringVar(&o.configPath, "config", "", "path to the YAML configuration file")
	o.fs.StringVar(&o.dataset, "dataset", "", "path to the hero build dataset")
	o.fs.StringVar(&o.abilities, "abilities", "", "path to the ability catalogue")
	o.fs.StringVar(&o.items, "items", "", "path to the item catalogue")
	o.fs.StringVar(&o.postgres, "postgres", "", "PostgreSQL DSN of the catalogue database")
	o.fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	o.fs.IntVar(&o.workers, "workers", 0, "number of validation workers (0 = GOMAXPROCS)")
	o.fs.DurationVar(&o.timeout, "timeout", 0, "wall-clock budget of a run")
	return o
}

// override applies the explicitly set flags to cfg.
func (o *options) override(cfg *config.Config) {
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dataset":
			cfg.Inputs.Dataset = o.dataset
		case "abilities":
			cfg.Inputs.Abilities = o.abilities
		case "items":
			cfg.Inputs.Items = o.items
		case "postgres":
			cfg.Inputs.PostgresDSN = o.postgres
		case "log-level":
			cfg.Log.Level = config.LogLevel(o.logLevel)
		case "workers":
			cfg.Run.Workers = o.workers
		case "timeout":
			cfg.Run.Timeout = o.timeout
		case "listen":
			cfg.Server.ListenAddr = o.listen
		case "interval":
			cfg.Server.PollInterval = o.interval
		}
	})
}

// load reads the config file, if any, applies the flags and checks that the
// inputs are complete.
func (o *options) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	o.override(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.ValidateInputs(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ── validate ──────────────────────────────────────────────────────────────────

func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o := newOptions("validate", stderr)
	o.fs.StringVar(&o.format, "format", string(report.FormatText), "report format: text, json or yaml")
	if err := o.fs.Parse(args); err != nil {
		return parseExit(err)
	}
	format, err := report.ParseFormat(o.format)
	if err != nil {
		fmt.Fprintf(stderr, "buildcheck: %v\n", err)
		return exitFatal
	}

	cfg, err := o.load()
	if err != nil {
		fmt.Fprintf(stderr, "buildcheck: %v\n", err)
		return exitFatal
	}
	setupLogger(cfg.Log, stderr)

	reg := config.NewRegistry()
	if cfg.Inputs.SourceName() == config.SourcePostgres {
		pool, err := openPostgres(ctx, reg, cfg.Inputs.PostgresDSN)
		if err != nil {
			slog.Error("failed to open catalogue database", "err", err)
			return exitFatal
		}
		defer pool.Close()
	}

	src, err := reg.CreateSource(cfg.Inputs)
	if err != nil {
		slog.Error("failed to create catalogue source", "err", err)
		return exitFatal
	}
	ds, err := herobuild.LoadCatalogFile(cfg.Inputs.Dataset)
	if err != nil {
		slog.Error("failed to load dataset", "path", cfg.Inputs.Dataset, "err", err)
		return exitFatal
	}

	orch := orchestrator.New(src,
		orchestrator.WithWorkers(cfg.Run.Workers),
		orchestrator.WithTimeout(cfg.Run.Timeout),
		orchestrator.WithRules(cfg.Rules.Rules()),
	)
	rep, runErr := orch.Run(ctx, ds)
	if rep == nil {
		slog.Error("validation could not start", "err", runErr)
		return exitFatal
	}
	if err := report.Render(stdout, rep, format); err != nil {
		slog.Error("failed to write report", "err", err)
		return exitTooling
	}
	return exitCode(rep, runErr)
}

// exitCode maps the outcome of a run to the process exit status.
func exitCode(rep *report.Report, err error) int {
	var le *catalogue.CatalogueLoadError
	switch {
	case errors.As(err, &le):
		return exitFatal
	case err != nil:
		// Timeouts, validator panics and interrupted runs.
		return exitTooling
	case !rep.Passed():
		return exitFail
	}
	return exitPass
}

// ── watch ─────────────────────────────────────────────────────────────────────

func runWatch(ctx context.Context, args []string, stderr io.Writer) int {
	o := newOptions("watch", stderr)
	o.fs.StringVar(&o.listen, "listen", "", "HTTP listen address (default from config, :8080)")
	o.fs.DurationVar(&o.interval, "interval", 0, "polling interval of the file watcher")
	if err := o.fs.Parse(args); err != nil {
		return parseExit(err)
	}

	cfg, err := o.load()
	if err != nil {
		fmt.Fprintf(stderr, "buildcheck: %v\n", err)
		return exitFatal
	}
	level := setupLogger(cfg.Log, stderr)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
		Registerer:     promReg,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return exitFatal
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return exitFatal
	}

	reg := config.NewRegistry()
	appOpts := []app.Option{
		app.WithLevelVar(level),
		app.WithMetrics(metrics),
		app.WithGatherer(promReg),
		app.WithWatcherOptions(
			config.WithInterval(cfg.Server.PollInterval),
			config.WithOverride(o.override),
		),
	}
	if cfg.Inputs.SourceName() == config.SourcePostgres {
		pool, err := openPostgres(ctx, reg, cfg.Inputs.PostgresDSN)
		if err != nil {
			slog.Error("failed to open catalogue database", "err", err)
			return exitFatal
		}
		defer pool.Close()
		appOpts = append(appOpts, app.WithCheckers(health.Checker{Name: "postgres", Check: pool.Ping}))
	}

	a, err := app.New(o.configPath, reg, appOpts...)
	if err != nil {
		slog.Error("failed to initialise watch mode", "err", err)
		return exitFatal
	}

	slog.Info("buildcheck watching",
		"version", version,
		"config", o.configPath,
		"dataset", cfg.Inputs.Dataset,
		"source", cfg.Inputs.SourceName(),
		"listen_addr", cfg.Server.ListenAddr,
	)
	if err := a.Run(ctx); err != nil {
		slog.Error("watch mode failed", "err", err)
		return exitTooling
	}
	slog.Info("goodbye")
	return exitPass
}

// ── catalogue import ──────────────────────────────────────────────────────────

func runImport(ctx context.Context, args []string, stderr io.Writer) int {
	o := newOptions("catalogue import", stderr)
	if err := o.fs.Parse(args); err != nil {
		return parseExit(err)
	}

	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			fmt.Fprintf(stderr, "buildcheck: %v\n", err)
			return exitFatal
		}
	}
	o.override(cfg)
	in := cfg.Inputs
	if in.Abilities == "" || in.Items == "" || in.PostgresDSN == "" {
		fmt.Fprint(stderr, "buildcheck: catalogue import needs -abilities, -items and -postgres\n")
		return exitFatal
	}
	setupLogger(cfg.Log, stderr)

	cats, err := catalogue.FileSource{AbilitiesPath: in.Abilities, ItemsPath: in.Items}.Load(ctx)
	if err != nil {
		slog.Error("failed to load catalogue files", "err", err)
		return exitFatal
	}

	pool, err := pgxpool.New(ctx, in.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to catalogue database", "err", err)
		return exitFatal
	}
	defer pool.Close()

	dst := catalogue.NewPostgresSource(pool)
	if err := dst.Migrate(ctx); err != nil {
		slog.Error("failed to migrate catalogue tables", "err", err)
		return exitFatal
	}
	n, err := dst.Import(ctx, cats)
	if err != nil {
		slog.Error("catalogue import failed", "written", n, "err", err)
		return exitTooling
	}
	abilities, items := cats.Size()
	slog.Info("catalogue imported", "rows", n, "abilities", abilities, "items", items)
	return exitPass
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// openPostgres connects to dsn, creates the catalogue tables if needed and
// registers the postgres source in reg. When catalogue files are configured
// as well, they serve as a fallback behind a circuit breaker. The caller
// closes the pool.
func openPostgres(ctx context.Context, reg *config.Registry, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	src := catalogue.NewPostgresSource(pool)
	if err := src.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	var (
		mu       sync.Mutex
		fallback *resilience.FallbackSource
		files    catalogue.FileSource
	)
	reg.RegisterSource(config.SourcePostgres, func(in config.InputsConfig) (catalogue.Source, error) {
		if in.PostgresDSN != dsn {
			return nil, errors.New("postgres_dsn changed; restart buildcheck to reconnect")
		}
		if in.Abilities == "" || in.Items == "" {
			return src, nil
		}
		// Reuse the group across runs so the breaker state survives reloads.
		mu.Lock()
		defer mu.Unlock()
		want := catalogue.FileSource{AbilitiesPath: in.Abilities, ItemsPath: in.Items}
		if fallback == nil || files != want {
			fallback = resilience.NewFallbackSource(src, config.SourcePostgres, resilience.FallbackConfig{})
			fallback.AddFallback(config.SourceFile, want)
			files = want
		}
		return fallback, nil
	})
	return pool, nil
}

// setupLogger installs the process logger and returns its level variable.
func setupLogger(lc config.LogConfig, w io.Writer) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(lc.Level.Level())
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return level
}

// parseExit maps a flag parse error to an exit code; -h is not a failure.
func parseExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitPass
	}
	return exitFatal
}
