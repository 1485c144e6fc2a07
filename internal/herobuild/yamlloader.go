package herobuild

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalogFile reads and parses a build dataset from disk. JSON datasets
// are accepted as well since JSON is valid YAML.
//
// Example:
//
//	heroes:
//	  antimage:
//	    creator: TNTCN
//	    gameplayVersion: "7.35"
//	    damageType: physical
//	    builds:
//	      - roles: [carry]
//	        steamGuideLinkId: 2699915996
//	        abilities: [antimage_mana_break, ...]
//	        items:
//	          starting: [tango, quelling_blade]
//	          ...
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("herobuild: open dataset %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCatalogFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("herobuild: parse dataset %q: %w", path, err)
	}
	return c, nil
}

// LoadCatalogFromReader parses a build dataset from an [io.Reader].
// Unknown keys are rejected so that a misspelt optional field is not silently
// dropped. The caller is responsible for closing r.
func LoadCatalogFromReader(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("herobuild: dataset is empty")
		}
		return nil, fmt.Errorf("herobuild: decode dataset yaml: %w", err)
	}
	if c.Heroes == nil {
		c.Heroes = map[string]HeroContent{}
	}
	return &c, nil
}
