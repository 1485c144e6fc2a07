package resilience

import (
	"context"
	"errors"
	"strings"

	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
)

// FallbackSource is a [catalogue.Source] that loads from the first healthy
// source of a [FallbackGroup]. A source whose breaker is open is skipped
// until its reset timeout elapses, so watch mode does not wait on a dead
// database at every change.
type FallbackSource struct {
	group *FallbackGroup[catalogue.Source]
}

var _ catalogue.Source = (*FallbackSource)(nil)

// NewFallbackSource creates a [FallbackSource] with primary as the preferred
// source. Unless cfg sets Retryable, only [Unavailable] errors move on to
// the next source: a source that serves a malformed catalogue fails the run.
func NewFallbackSource(primary catalogue.Source, primaryName string, cfg FallbackConfig) *FallbackSource {
	if cfg.Retryable == nil {
		cfg.Retryable = Unavailable
	}
	return &FallbackSource{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// Unavailable reports whether err means a source could not be reached,
// rather than that it served a bad catalogue. Errors other than
// [*catalogue.CatalogueLoadError] count as unavailable.
func Unavailable(err error) bool {
	var le *catalogue.CatalogueLoadError
	return !errors.As(err, &le) || errors.Is(err, catalogue.ErrUnavailable)
}

// AddFallback registers src, tried after the sources added before it.
func (f *FallbackSource) AddFallback(name string, src catalogue.Source) {
	f.group.AddFallback(name, src)
}

// Load returns the catalogues of the first source that loads them. When all
// fail, the error wraps [ErrAllFailed] and the last source's error, so a
// [*catalogue.CatalogueLoadError] stays reachable with errors.As.
func (f *FallbackSource) Load(ctx context.Context) (*catalogue.Catalogues, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, src catalogue.Source) (*catalogue.Catalogues, error) {
		return src.Load(ctx)
	})
}

// SourceName reports the sources in the order they are tried, for metrics.
func (f *FallbackSource) SourceName() string {
	return strings.Join(f.group.Names(), "+")
}

// PrimaryState returns the breaker state of the primary source.
func (f *FallbackSource) PrimaryState() State {
	return f.group.entries[0].breaker.State()
}
