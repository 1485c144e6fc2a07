package catalogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// abilitiesFile is the top-level structure of an ability catalogue file.
//
//	abilities:
//	  - id: antimage_mana_break
//	    hero: antimage
//	  - id: special_bonus_unique_antimage_3
//	    hero: antimage
//	    talent: true
//	    talentLevel: 20
type abilitiesFile struct {
	Abilities []Ability `yaml:"abilities"`
}

// itemsFile is the top-level structure of an item catalogue file.
//
//	items:
//	  - id: tango
//	    cost: 90
//	  - id: broom_handle
//	    cost: 0
//	    neutral: true
type itemsFile struct {
	Items []Item `yaml:"items"`
}

// LoadAbilitiesFromReader decodes an ability catalogue. The entries are not
// validated here; [New] does that.
func LoadAbilitiesFromReader(r io.Reader) ([]Ability, error) {
	var f abilitiesFile
	if err := decodeStrict(r, &f); err != nil {
		return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: err}
	}
	return f.Abilities, nil
}

// LoadItemsFromReader decodes an item catalogue. The entries are not
// validated here; [New] does that.
func LoadItemsFromReader(r io.Reader) ([]Item, error) {
	var f itemsFile
	if err := decodeStrict(r, &f); err != nil {
		return nil, &CatalogueLoadError{Catalogue: KindItems, Err: err}
	}
	return f.Items, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyCatalogue
		}
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// FileSource loads both catalogues from YAML files.
type FileSource struct {
	AbilitiesPath string
	ItemsPath     string
}

var _ Source = FileSource{}

// Load reads both files, closing each before it returns. Either both
// catalogues load completely or a [*CatalogueLoadError] is returned.
func (s FileSource) Load(ctx context.Context) (*Catalogues, error) {
	abilities, err := readFile(ctx, KindAbilities, s.AbilitiesPath, LoadAbilitiesFromReader)
	if err != nil {
		return nil, err
	}
	items, err := readFile(ctx, KindItems, s.ItemsPath, LoadItemsFromReader)
	if err != nil {
		return nil, err
	}

	c, err := New(abilities, items)
	if err != nil {
		var le *CatalogueLoadError
		if errors.As(err, &le) && le.Path == "" {
			switch le.Catalogue {
			case KindAbilities:
				le.Path = s.AbilitiesPath
			case KindItems:
				le.Path = s.ItemsPath
			}
		}
		return nil, err
	}
	return c, nil
}

func readFile[T any](ctx context.Context, k Kind, path string, decode func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &CatalogueLoadError{Catalogue: k, Err: errors.New("no path configured")}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &CatalogueLoadError{Catalogue: k, Path: path, Err: err}
	}
	defer f.Close()

	out, err := decode(f)
	if err != nil {
		return nil, withPath(err, k, path)
	}
	return out, nil
}
