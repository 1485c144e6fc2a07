package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. Inputs may
// still be incomplete here since flags can supply them later; see
// [ValidateInputs]. It returns a joined error listing all failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if cfg.Log.Format != "" && !cfg.Log.Format.IsValid() {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json", cfg.Log.Format))
	}

	if src := cfg.Inputs.Source; src != "" && src != SourceFile && src != SourcePostgres {
		errs = append(errs, fmt.Errorf("inputs.source %q is invalid; valid values: file, postgres", src))
	}
	if cfg.Inputs.Source == SourceFile && cfg.Inputs.PostgresDSN != "" {
		slog.Warn("inputs.postgres_dsn is set but inputs.source is file; the DSN is ignored")
	}

	if err := cfg.Rules.Rules().Check(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}

	if cfg.Run.Workers < 0 {
		errs = append(errs, fmt.Errorf("run.workers %d must not be negative", cfg.Run.Workers))
	}
	if cfg.Run.Timeout < 0 {
		errs = append(errs, fmt.Errorf("run.timeout %s must not be negative", cfg.Run.Timeout))
	}

	if cfg.Server.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("server.poll_interval %s must not be negative", cfg.Server.PollInterval))
	}

	return errors.Join(errs...)
}

// ValidateInputs checks that cfg names a dataset and a complete catalogue
// source. Call it once file values and flag overrides have been merged.
func ValidateInputs(cfg *Config) error {
	var errs []error
	in := cfg.Inputs
	if in.Dataset == "" {
		errs = append(errs, errors.New("inputs.dataset is required"))
	}
	switch in.SourceName() {
	case SourceFile:
		if in.Abilities == "" {
			errs = append(errs, errors.New("inputs.abilities is required for the file source"))
		}
		if in.Items == "" {
			errs = append(errs, errors.New("inputs.items is required for the file source"))
		}
	case SourcePostgres:
		if in.PostgresDSN == "" {
			errs = append(errs, errors.New("inputs.postgres_dsn is required for the postgres source"))
		}
	}
	return errors.Join(errs...)
}

// WatchedPaths returns the local files whose change invalidates a report:
// the dataset and, for the file source, both catalogues.
func (in InputsConfig) WatchedPaths() []string {
	var paths []string
	if in.Dataset != "" {
		paths = append(paths, in.Dataset)
	}
	if in.SourceName() == SourceFile {
		for _, p := range []string{in.Abilities, in.Items} {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}
