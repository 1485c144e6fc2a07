package herobuild

import (
	"slices"
	"sort"
)

// NormalizedCatalog is a [Catalog] with every optional field resolved, so that
// consumers branch on values and never on presence.
type NormalizedCatalog struct {
	// Heroes is sorted by hero ID.
	Heroes []Hero
}

// Hero is one normalised hero with its build records.
type Hero struct {
	ID      string
	Content HeroContent

	// Records holds one entry per build, in dataset order.
	Records []Record
}

// Record is one (hero, build) pair, the unit of per-build validation.
type Record struct {
	Hero       string
	BuildIndex int
	Build      HeroBuild

	// HasCompanionUnit is copied from the hero so build checks need no hero lookup.
	HasCompanionUnit bool

	// Combo is the effective combo: the build override when present, otherwise
	// the hero combo.
	Combo []Token

	// ComboOverride reports whether Combo comes from the build itself.
	ComboOverride bool
}

// RecordCount returns the total number of build records.
func (nc *NormalizedCatalog) RecordCount() int {
	n := 0
	for _, h := range nc.Heroes {
		n += len(h.Records)
	}
	return n
}

// Normalize resolves all optional fields of c. It never fails and never
// modifies c: absence of an optional field is not an error here, later
// validators decide whether a resolved default is acceptable.
func Normalize(c *Catalog) *NormalizedCatalog {
	nc := &NormalizedCatalog{}
	if c == nil {
		return nc
	}

	ids := make([]string, 0, len(c.Heroes))
	for id := range c.Heroes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nc.Heroes = make([]Hero, 0, len(ids))
	for _, id := range ids {
		nc.Heroes = append(nc.Heroes, normalizeHero(id, c.Heroes[id]))
	}
	return nc
}

func normalizeHero(id string, hc HeroContent) Hero {
	out := hc
	out.Combo = orEmpty(hc.Combo)
	out.CounterItems = CounterItems{
		LaningPhase: normalizeCounterSet(hc.CounterItems.LaningPhase),
		MidGame:     normalizeCounterSet(hc.CounterItems.MidGame),
		LateGame:    normalizeCounterSet(hc.CounterItems.LateGame),
	}
	out.Builds = make([]HeroBuild, 0, len(hc.Builds))

	h := Hero{ID: id, Records: make([]Record, 0, len(hc.Builds))}
	for i, b := range hc.Builds {
		nb := normalizeBuild(b)
		out.Builds = append(out.Builds, nb)

		rec := Record{
			Hero:             id,
			BuildIndex:       i,
			Build:            nb,
			HasCompanionUnit: hc.HasCompanionUnit,
			Combo:            out.Combo,
		}
		if b.Combo != nil {
			rec.Combo = nb.Combo
			rec.ComboOverride = true
		}
		h.Records = append(h.Records, rec)
	}
	h.Content = out
	return h
}

func normalizeBuild(b HeroBuild) HeroBuild {
	out := b
	if out.SteamGuideRole == "" {
		out.SteamGuideRole = SteamGuideRoleNone
	}
	out.Roles = orEmpty(b.Roles)
	out.Abilities = orEmpty(b.Abilities)
	if b.Combo != nil {
		out.Combo = slices.Clone(b.Combo)
	}
	out.Items = normalizeItems(b.Items)
	return out
}

func normalizeItems(ib ItemBuild) ItemBuild {
	out := ItemBuild{
		Starting:    orEmpty(ib.Starting),
		EarlyGame:   orEmpty(ib.EarlyGame),
		MidGame:     orEmpty(ib.MidGame),
		LateGame:    orEmpty(ib.LateGame),
		Situational: orEmpty(ib.Situational),
		Core:        orEmpty(ib.Core),
		Neutral:     orEmpty(ib.Neutral),
	}

	if ib.Companion == nil && !ib.hasFlatFields() {
		return out
	}

	// Nested fields win; flat legacy fields fill whatever the nested form omits.
	var nested CompanionItemBuild
	if ib.Companion != nil {
		nested = *ib.Companion
	}
	out.Companion = &CompanionItemBuild{
		Starting:    orEmpty(firstNonNil(nested.Starting, ib.StartingBear)),
		EarlyGame:   orEmpty(firstNonNil(nested.EarlyGame, ib.EarlyGameBear)),
		MidGame:     orEmpty(firstNonNil(nested.MidGame, ib.MidGameBear)),
		LateGame:    orEmpty(firstNonNil(nested.LateGame, ib.LateGameBear)),
		Situational: orEmpty(firstNonNil(nested.Situational, ib.SituationalBear)),
		Core:        orEmpty(firstNonNil(nested.Core, ib.CoreBear)),
		Neutral:     orEmpty(firstNonNil(nested.Neutral, ib.NeutralBear)),
	}
	return out
}

func normalizeCounterSet(s CounterItemSet) CounterItemSet {
	return CounterItemSet{
		All:                 orEmpty(s.All),
		Support:             orEmpty(s.Support),
		Core:                orEmpty(s.Core),
		OverflowIntentional: s.OverflowIntentional,
	}
}

// orEmpty returns a copy of s, or an empty non-nil slice when s is nil.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

func firstNonNil[T any](a, b []T) []T {
	if a != nil {
		return a
	}
	return b
}
