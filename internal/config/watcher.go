package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

// Event describes one detected change.
type Event struct {
	// Old and New are set when the config file itself changed and the new
	// version is valid. Both are nil for input-only changes.
	Old, New *Config

	// Paths lists the changed files, config file included, sorted.
	Paths []string
}

// ConfigChanged reports whether the event carries a reloaded config.
func (e Event) ConfigChanged() bool { return e.New != nil }

// Watcher monitors the config file and the input files it names, and calls
// a callback when any of them is modified. It uses polling (not fsnotify) to
// keep dependencies minimal: a file counts as changed when its mtime moved
// and its SHA-256 differs from the last seen content.
type Watcher struct {
	configPath string
	interval   time.Duration
	override   func(*Config)
	onChange   func(Event)

	mu       sync.Mutex
	current  *Config
	files    map[string]fileState
	done     chan struct{}
	stopOnce sync.Once
}

type fileState struct {
	mtime time.Time
	hash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOverride registers fn to run on every loaded config before it is
// validated and published, typically to apply command-line flags.
func WithOverride(fn func(*Config)) WatcherOption {
	return func(w *Watcher) { w.override = fn }
}

// NewWatcher creates a watcher. When configPath is empty, [Default] is used
// and only the input files are watched. The initial config is loaded
// immediately and polling starts in a background goroutine.
func NewWatcher(configPath string, onChange func(Event), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		configPath: configPath,
		interval:   5 * time.Second,
		onChange:   onChange,
		files:      make(map[string]fileState),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg := Default()
	if configPath != "" {
		data, st, err := readState(configPath)
		if err != nil {
			return nil, fmt.Errorf("config: watcher initial load: %w", err)
		}
		if cfg, err = w.parse(data); err != nil {
			return nil, fmt.Errorf("config: watcher initial load: %w", err)
		}
		w.files[configPath] = st
	} else if w.override != nil {
		w.override(cfg)
	}
	w.current = cfg
	w.track(cfg.Inputs.WatchedPaths())

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Paths returns the files currently watched, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check fingerprints every watched file and publishes one event for all
// changes found in this tick.
func (w *Watcher) check() {
	w.mu.Lock()
	states := make(map[string]fileState, len(w.files))
	for p, st := range w.files {
		states[p] = st
	}
	w.mu.Unlock()

	var (
		ev      Event
		updates = make(map[string]fileState)
	)
	for path, last := range states {
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("config watcher: cannot stat file", "path", path, "err", err)
			continue
		}
		if info.ModTime().Equal(last.mtime) {
			continue
		}

		data, st, err := readState(path)
		if err != nil {
			slog.Warn("config watcher: cannot read file", "path", path, "err", err)
			continue
		}
		if st.hash == last.hash {
			// Touched but content is identical.
			updates[path] = st
			continue
		}

		if path == w.configPath {
			cfg, err := w.parse(data)
			if err != nil {
				// Keep the old config; retry on the next mtime change.
				slog.Warn("config watcher: failed to load config", "path", path, "err", err)
				continue
			}
			ev.New = cfg
		}
		updates[path] = st
		ev.Paths = append(ev.Paths, path)
	}

	w.mu.Lock()
	for p, st := range updates {
		if _, ok := w.files[p]; ok {
			w.files[p] = st
		}
	}
	if ev.New != nil {
		ev.Old = w.current
		w.current = ev.New
	}
	w.mu.Unlock()

	if ev.New != nil {
		slog.Info("config watcher: configuration reloaded", "path", w.configPath)
		w.retrack(ev.New.Inputs.WatchedPaths())
	}
	if len(ev.Paths) == 0 {
		return
	}
	slices.Sort(ev.Paths)

	// Invoke the callback outside the lock so it can safely call Current().
	if w.onChange != nil {
		w.onChange(ev)
	}
}

// track fingerprints paths that are not yet watched. Missing files are
// watched from their first appearance.
func (w *Watcher) track(paths []string) {
	for _, p := range paths {
		w.mu.Lock()
		_, ok := w.files[p]
		w.mu.Unlock()
		if ok {
			continue
		}
		_, st, err := readState(p)
		if err != nil {
			slog.Warn("config watcher: cannot read file", "path", p, "err", err)
		}
		w.mu.Lock()
		w.files[p] = st
		w.mu.Unlock()
	}
}

// retrack replaces the watched input files with paths after a config reload.
func (w *Watcher) retrack(paths []string) {
	w.mu.Lock()
	for p := range w.files {
		if p != w.configPath && !slices.Contains(paths, p) {
			delete(w.files, p)
		}
	}
	w.mu.Unlock()
	w.track(paths)
}

func (w *Watcher) parse(data []byte) (*Config, error) {
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if w.override != nil {
		w.override(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func readState(path string) ([]byte, fileState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileState{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fileState{}, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fileState{}, err
	}
	data := buf.Bytes()
	return data, fileState{mtime: info.ModTime(), hash: sha256.Sum256(data)}, nil
}
