package catalogue

import (
	"errors"
	"fmt"
)

// Kind names one of the two catalogues.
type Kind string

const (
	KindAbilities Kind = "abilities"
	KindItems     Kind = "items"
)

var (
	// ErrEmptyCatalogue is wrapped when a catalogue has no entries at all.
	ErrEmptyCatalogue = errors.New("catalogue is empty")

	// ErrUnavailable is wrapped when the backend of a source could not be
	// reached or read, as opposed to serving a malformed catalogue.
	ErrUnavailable = errors.New("catalogue source unavailable")
)

// CatalogueLoadError reports that a catalogue could not be read or is
// malformed. It is fatal: no record is checked against a catalogue that did
// not load completely.
type CatalogueLoadError struct {
	Catalogue Kind

	// Path is the file or table the catalogue was read from, if known.
	Path string

	Err error
}

func (e *CatalogueLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("catalogue: load %s from %q: %v", e.Catalogue, e.Path, e.Err)
	}
	return fmt.Sprintf("catalogue: load %s: %v", e.Catalogue, e.Err)
}

func (e *CatalogueLoadError) Unwrap() error { return e.Err }

// withPath returns err with Path filled in when err is a [*CatalogueLoadError]
// without one, and wraps any other error as a load error of kind k.
func withPath(err error, k Kind, path string) error {
	var le *CatalogueLoadError
	if errors.As(err, &le) {
		if le.Path == "" {
			le.Path = path
		}
		return le
	}
	return &CatalogueLoadError{Catalogue: k, Path: path, Err: err}
}
