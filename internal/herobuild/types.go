// Package herobuild models the hand-maintained catalogue of per-hero build
// records: skill orders, item purchase plans, counter items and combos.
//
// Records are loaded from a YAML (or JSON) dataset with [LoadCatalogFile] or
// [LoadCatalogFromReader] and turned into a flat, default-resolved list of
// [Record] values by [Normalize]. Nothing in this package decides whether a
// record is correct; that is the job of the validate package.
//
// Abilities, items and combo entries are opaque identifiers ([AbilityID],
// [ItemID], [Token]). Their validity is only established by looking them up in
// an external catalogue.
package herobuild

// Catalog is the full build dataset: one [HeroContent] per hero identifier.
type Catalog struct {
	Heroes map[string]HeroContent `yaml:"heroes" json:"heroes"`
}

// HeroContent is all published guidance for one hero.
type HeroContent struct {
	// Creator identifies the guide author. Must be one of the configured creators.
	Creator Creator `yaml:"creator" json:"creator"`

	// GameplayVersion is the game patch the guide was written for. Must be non-empty.
	GameplayVersion string `yaml:"gameplayVersion" json:"gameplayVersion"`

	// DamageType is the hero's predominant damage type.
	DamageType DamageType `yaml:"damageType" json:"damageType"`

	// Blurb is optional creator text exported with every guide of this hero.
	Blurb string `yaml:"blurb,omitempty" json:"blurb,omitempty"`

	// HasCompanionUnit marks the hero whose summon carries its own inventory.
	// Builds of such a hero must carry a companion item build.
	HasCompanionUnit bool `yaml:"hasCompanionUnit,omitempty" json:"hasCompanionUnit,omitempty"`

	// Builds lists the hero's builds. The first build is the standard one.
	Builds []HeroBuild `yaml:"builds" json:"builds"`

	// Combo is the hero-level combo, used by builds without their own.
	Combo []Token `yaml:"combo,omitempty" json:"combo,omitempty"`

	// CounterItems are the items recommended against this hero, per phase.
	CounterItems CounterItems `yaml:"counterItems" json:"counterItems"`
}

// HeroBuild is one skill and item plan for a hero under a given role.
type HeroBuild struct {
	Roles []Role `yaml:"roles" json:"roles"`

	// Type disambiguates builds of the same hero that share roles.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// SteamGuideLinkID is the id of the published platform guide. It must be
	// positive and unique across the whole catalogue.
	SteamGuideLinkID int64 `yaml:"steamGuideLinkId" json:"steamGuideLinkId"`

	// SteamGuideRole is the role shown on the platform guide. Empty until normalised.
	SteamGuideRole SteamGuideRole `yaml:"steamGuideRole,omitempty" json:"steamGuideRole,omitempty"`

	// Notes is optional free text exported with the guide.
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`

	Abilities []AbilityID `yaml:"abilities" json:"abilities"`
	Items     ItemBuild   `yaml:"items" json:"items"`

	// Combo overrides the hero-level combo when non-nil.
	Combo []Token `yaml:"combo,omitempty" json:"combo,omitempty"`
}

// ItemBuild is the purchasing plan of a build.
type ItemBuild struct {
	Starting    []ItemID `yaml:"starting" json:"starting"`
	EarlyGame   []ItemID `yaml:"earlyGame,omitempty" json:"earlyGame,omitempty"`
	MidGame     []ItemID `yaml:"midGame,omitempty" json:"midGame,omitempty"`
	LateGame    []ItemID `yaml:"lateGame,omitempty" json:"lateGame,omitempty"`
	Situational []ItemID `yaml:"situational" json:"situational"`

	// Core is a selection from the other lists, never a disjoint list.
	Core    []ItemID `yaml:"core" json:"core"`
	Neutral []ItemID `yaml:"neutral" json:"neutral"`

	// Companion is the nested form of the companion unit's item build.
	Companion *CompanionItemBuild `yaml:"companion,omitempty" json:"companion,omitempty"`

	// Flat companion fields as written in older datasets. [Normalize] folds
	// them into Companion.
	StartingBear    []ItemID `yaml:"startingBear,omitempty" json:"startingBear,omitempty"`
	EarlyGameBear   []ItemID `yaml:"earlyGameBear,omitempty" json:"earlyGameBear,omitempty"`
	MidGameBear     []ItemID `yaml:"midGameBear,omitempty" json:"midGameBear,omitempty"`
	LateGameBear    []ItemID `yaml:"lateGameBear,omitempty" json:"lateGameBear,omitempty"`
	SituationalBear []ItemID `yaml:"situationalBear,omitempty" json:"situationalBear,omitempty"`
	CoreBear        []ItemID `yaml:"coreBear,omitempty" json:"coreBear,omitempty"`
	NeutralBear     []ItemID `yaml:"neutralBear,omitempty" json:"neutralBear,omitempty"`
}

// CompanionItemBuild is the item build of a summoned unit with its own
// inventory. Its core list is independent of the other lists.
type CompanionItemBuild struct {
	Starting    []ItemID `yaml:"starting" json:"starting"`
	EarlyGame   []ItemID `yaml:"earlyGame,omitempty" json:"earlyGame,omitempty"`
	MidGame     []ItemID `yaml:"midGame,omitempty" json:"midGame,omitempty"`
	LateGame    []ItemID `yaml:"lateGame,omitempty" json:"lateGame,omitempty"`
	Situational []ItemID `yaml:"situational,omitempty" json:"situational,omitempty"`
	Core        []ItemID `yaml:"core,omitempty" json:"core,omitempty"`
	Neutral     []ItemID `yaml:"neutral,omitempty" json:"neutral,omitempty"`
}

// hasFlatFields reports whether any legacy flat companion field is set.
func (ib ItemBuild) hasFlatFields() bool {
	return ib.StartingBear != nil || ib.EarlyGameBear != nil || ib.MidGameBear != nil ||
		ib.LateGameBear != nil || ib.SituationalBear != nil || ib.CoreBear != nil ||
		ib.NeutralBear != nil
}

// CounterItems groups counter item recommendations by game phase.
type CounterItems struct {
	LaningPhase CounterItemSet `yaml:"laningPhase" json:"laningPhase"`
	MidGame     CounterItemSet `yaml:"midGame" json:"midGame"`
	LateGame    CounterItemSet `yaml:"lateGame" json:"lateGame"`
}

// ByPhase returns the sets in fixed phase order.
func (c CounterItems) ByPhase() []PhaseSet {
	return []PhaseSet{
		{Phase: PhaseLaning, Set: c.LaningPhase},
		{Phase: PhaseMidGame, Set: c.MidGame},
		{Phase: PhaseLateGame, Set: c.LateGame},
	}
}

// PhaseSet pairs a counter item set with the phase it belongs to.
type PhaseSet struct {
	Phase Phase
	Set   CounterItemSet
}

// CounterItemSet lists items that counter the hero, split by who should buy them.
// The in-game UI shows All plus one of Support or Core, truncated to a small
// display limit.
type CounterItemSet struct {
	All     []CounterItem `yaml:"all" json:"all"`
	Support []CounterItem `yaml:"support" json:"support"`
	Core    []CounterItem `yaml:"core" json:"core"`

	// OverflowIntentional acknowledges that the set exceeds the display limit.
	OverflowIntentional bool `yaml:"overflowIntentional,omitempty" json:"overflowIntentional,omitempty"`
}

// CounterItem is one counter recommendation. In the dataset it is written
// either as a bare item id or as a mapping with an item id and export text.
type CounterItem struct {
	Item ItemID `yaml:"item" json:"item"`
	Info string `yaml:"info,omitempty" json:"info,omitempty"`
}
