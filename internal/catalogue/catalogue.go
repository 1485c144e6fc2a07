// Package catalogue loads the authoritative ability and item catalogues that
// build records are cross-referenced against.
//
// A [Catalogues] value is built once per validation run from a [Source] and is
// read-only afterwards, so any number of validators may share it across
// goroutines without locking. There is no package-level catalogue: runs against
// different catalogue versions never interfere.
//
// Loading is all-or-nothing. Any unreadable or malformed input yields a
// [*CatalogueLoadError] and no catalogue at all.
package catalogue

import (
	"context"
	"fmt"
	"sort"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Source produces a complete set of catalogues.
type Source interface {
	Load(ctx context.Context) (*Catalogues, error)
}

// Ability is one entry of the ability catalogue.
type Ability struct {
	ID   herobuild.AbilityID `yaml:"id" json:"id"`
	Hero string              `yaml:"hero" json:"hero"`

	// Talent marks talent picks, which may only sit at talent slots.
	Talent bool `yaml:"talent,omitempty" json:"talent,omitempty"`

	// TalentLevel is the level whose slot this talent belongs to. Zero when unknown.
	TalentLevel int `yaml:"talentLevel,omitempty" json:"talentLevel,omitempty"`
}

// Item is one entry of the item catalogue.
type Item struct {
	ID herobuild.ItemID `yaml:"id" json:"id"`

	// Cost is the gold cost. Pointer so that a missing cost can be told apart
	// from a free item while decoding.
	Cost *int `yaml:"cost" json:"cost"`

	// Neutral marks items that only drop from neutral creeps.
	Neutral bool `yaml:"neutral,omitempty" json:"neutral,omitempty"`
}

// GoldCost returns the item's cost, or 0 when none was declared.
func (it Item) GoldCost() int {
	if it.Cost == nil {
		return 0
	}
	return *it.Cost
}

// Catalogues is the immutable pair of lookup tables used during validation.
// All methods are safe for concurrent use.
type Catalogues struct {
	abilities     map[herobuild.AbilityID]Ability
	heroAbilities map[string]map[herobuild.AbilityID]struct{}
	items         map[herobuild.ItemID]Item
	itemIDs       []herobuild.ItemID
	heroIDs       map[string][]herobuild.AbilityID
}

// New validates the given entries and freezes them into a [Catalogues].
// Errors are returned as [*CatalogueLoadError].
func New(abilities []Ability, items []Item) (*Catalogues, error) {
	if len(abilities) == 0 {
		return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: ErrEmptyCatalogue}
	}
	if len(items) == 0 {
		return nil, &CatalogueLoadError{Catalogue: KindItems, Err: ErrEmptyCatalogue}
	}

	c := &Catalogues{
		abilities:     make(map[herobuild.AbilityID]Ability, len(abilities)),
		heroAbilities: make(map[string]map[herobuild.AbilityID]struct{}),
		items:         make(map[herobuild.ItemID]Item, len(items)),
		heroIDs:       make(map[string][]herobuild.AbilityID),
	}

	for i, a := range abilities {
		switch {
		case a.ID == "":
			return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: fmt.Errorf("abilities[%d]: id is required", i)}
		case a.Hero == "":
			return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: fmt.Errorf("abilities[%d] %q: hero is required", i, a.ID)}
		case a.TalentLevel < 0:
			return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: fmt.Errorf("abilities[%d] %q: talentLevel must not be negative", i, a.ID)}
		}
		if _, dup := c.abilities[a.ID]; dup {
			return nil, &CatalogueLoadError{Catalogue: KindAbilities, Err: fmt.Errorf("abilities[%d]: duplicate id %q", i, a.ID)}
		}
		c.abilities[a.ID] = a
		set, ok := c.heroAbilities[a.Hero]
		if !ok {
			set = make(map[herobuild.AbilityID]struct{})
			c.heroAbilities[a.Hero] = set
		}
		set[a.ID] = struct{}{}
		c.heroIDs[a.Hero] = append(c.heroIDs[a.Hero], a.ID)
	}

	for i, it := range items {
		switch {
		case it.ID == "":
			return nil, &CatalogueLoadError{Catalogue: KindItems, Err: fmt.Errorf("items[%d]: id is required", i)}
		case it.Cost == nil:
			return nil, &CatalogueLoadError{Catalogue: KindItems, Err: fmt.Errorf("items[%d] %q: cost is required", i, it.ID)}
		case *it.Cost < 0:
			return nil, &CatalogueLoadError{Catalogue: KindItems, Err: fmt.Errorf("items[%d] %q: cost must not be negative", i, it.ID)}
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, &CatalogueLoadError{Catalogue: KindItems, Err: fmt.Errorf("items[%d]: duplicate id %q", i, it.ID)}
		}
		cost := *it.Cost
		it.Cost = &cost
		c.items[it.ID] = it
		c.itemIDs = append(c.itemIDs, it.ID)
	}

	sort.Slice(c.itemIDs, func(i, j int) bool { return c.itemIDs[i] < c.itemIDs[j] })
	for hero := range c.heroIDs {
		ids := c.heroIDs[hero]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return c, nil
}

// Ability returns the catalogue entry for id regardless of hero.
func (c *Catalogues) Ability(id herobuild.AbilityID) (Ability, bool) {
	a, ok := c.abilities[id]
	return a, ok
}

// HasAbility reports whether id is an ability of hero.
func (c *Catalogues) HasAbility(hero string, id herobuild.AbilityID) bool {
	_, ok := c.heroAbilities[hero][id]
	return ok
}

// HeroAbilities returns the sorted ability ids of hero. The returned slice
// must not be modified.
func (c *Catalogues) HeroAbilities(hero string) []herobuild.AbilityID {
	return c.heroIDs[hero]
}

// Heroes returns every hero that owns at least one ability, sorted.
func (c *Catalogues) Heroes() []string {
	out := make([]string, 0, len(c.heroIDs))
	for hero := range c.heroIDs {
		out = append(out, hero)
	}
	sort.Strings(out)
	return out
}

// Item returns the catalogue entry for id.
func (c *Catalogues) Item(id herobuild.ItemID) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// ItemIDs returns all item ids in sorted order. The returned slice must not be
// modified.
func (c *Catalogues) ItemIDs() []herobuild.ItemID {
	return c.itemIDs
}

// Abilities returns every ability entry sorted by id.
func (c *Catalogues) Abilities() []Ability {
	out := make([]Ability, 0, len(c.abilities))
	for _, a := range c.abilities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns every item entry sorted by id.
func (c *Catalogues) Items() []Item {
	out := make([]Item, 0, len(c.itemIDs))
	for _, id := range c.itemIDs {
		out = append(out, c.items[id])
	}
	return out
}

// Size returns the number of abilities and items.
func (c *Catalogues) Size() (abilities, items int) {
	return len(c.abilities), len(c.items)
}
