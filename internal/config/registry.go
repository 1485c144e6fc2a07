package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
)

// Names of the built-in catalogue sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// ErrSourceNotRegistered is returned by [Registry.CreateSource] when no
// factory has been registered under the requested source name.
var ErrSourceNotRegistered = errors.New("config: catalogue source not registered")

// SourceFactory builds a catalogue source from the inputs section.
type SourceFactory func(InputsConfig) (catalogue.Source, error)

// Registry maps catalogue source names to their constructors. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
}

// NewRegistry returns a [Registry] with the file source registered. The
// postgres source needs a connection pool and is registered by the caller.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]SourceFactory)}
	r.RegisterSource(SourceFile, func(in InputsConfig) (catalogue.Source, error) {
		return catalogue.FileSource{AbilitiesPath: in.Abilities, ItemsPath: in.Items}, nil
	})
	return r
}

// RegisterSource registers a factory under name. Subsequent calls with the
// same name overwrite the previous registration.
func (r *Registry) RegisterSource(name string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = factory
}

// CreateSource builds the source selected by in.
func (r *Registry) CreateSource(in InputsConfig) (catalogue.Source, error) {
	name := in.SourceName()
	r.mu.RLock()
	factory, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotRegistered, name)
	}
	src, err := factory(in)
	if err != nil {
		return nil, fmt.Errorf("config: create %s source: %w", name, err)
	}
	return src, nil
}

// Sources returns the registered source names, sorted.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
