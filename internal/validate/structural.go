package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Structural checks record shape: required fields, enum values, the ability
// sequence length and talent cadence, companion builds, core item selection
// and forbidden characters in exported text.
//
// Tokens that do not resolve against the catalogue are left to
// [CrossReference]; Structural only judges tokens it can identify, so one bad
// token never yields two findings.
type Structural struct{}

func (Structural) Name() string { return "structural" }

func (Structural) ValidateHero(vc *Context, h *herobuild.Hero) []Finding {
	loc := heroLoc(h.ID)
	c := &h.Content
	var out []Finding

	switch {
	case c.Creator == "":
		out = append(out, NewFinding(KindMissingField, loc.at("creator"), "creator is required"))
	case !vc.validCreator(c.Creator):
		out = append(out, NewFinding(KindInvalidValue, loc.at("creator"),
			"creator %q is not one of %s", c.Creator, strings.Join(vc.creatorNames(), ", ")))
	}

	if strings.TrimSpace(c.GameplayVersion) == "" {
		out = append(out, NewFinding(KindMissingField, loc.at("gameplayVersion"), "gameplayVersion is required"))
	}

	switch {
	case c.DamageType == "":
		out = append(out, NewFinding(KindMissingField, loc.at("damageType"), "damageType is required"))
	case !c.DamageType.IsValid():
		out = append(out, NewFinding(KindInvalidValue, loc.at("damageType"),
			"damageType %q must be one of neutral, physical, magical, pure", c.DamageType))
	}

	if len(c.Builds) == 0 {
		out = append(out, NewFinding(KindMissingField, loc.at("builds"), "hero has no builds"))
	}

	out = append(out, vc.forbiddenText(loc.at("blurb"), c.Blurb)...)
	out = append(out, vc.comboLabels(loc, c.Combo)...)

	for _, ps := range c.CounterItems.ByPhase() {
		for _, g := range counterGroups(ps) {
			for i, ci := range g.items {
				if ci.Info == "" {
					continue
				}
				out = append(out, vc.forbiddenText(loc.at(indexed(g.field, i)+".info"), ci.Info)...)
			}
		}
	}
	return out
}

func (Structural) ValidateBuild(vc *Context, rec *herobuild.Record) []Finding {
	loc := buildLoc(rec)
	b := &rec.Build
	var out []Finding

	if len(b.Roles) == 0 {
		out = append(out, NewFinding(KindMissingField, loc.at("roles"), "at least one role is required"))
	}
	for i, r := range b.Roles {
		if !r.IsValid() {
			out = append(out, NewFinding(KindInvalidValue, loc.at(indexed("roles", i)), "unknown role %q", r))
		}
	}
	if b.SteamGuideLinkID <= 0 {
		out = append(out, NewFinding(KindInvalidValue, loc.at("steamGuideLinkId"),
			"steamGuideLinkId must be positive, got %d", b.SteamGuideLinkID))
	}
	if !b.SteamGuideRole.IsValid() {
		out = append(out, NewFinding(KindInvalidValue, loc.at("steamGuideRole"), "unknown steamGuideRole %q", b.SteamGuideRole))
	}

	switch n := len(b.Abilities); {
	case n != vc.Rules.AbilityCount:
		out = append(out, NewFinding(KindAbilityCount, loc.at("abilities"),
			"expected %d abilities, got %d", vc.Rules.AbilityCount, n))
	default:
		// Slot positions only mean something once the length is right.
		out = append(out, talentOrder(vc, rec)...)
	}

	out = append(out, itemShape(vc, rec)...)
	out = append(out, companionShape(rec)...)

	out = append(out, vc.forbiddenText(loc.at("type"), b.Type)...)
	out = append(out, vc.forbiddenText(loc.at("notes"), b.Notes)...)
	if rec.ComboOverride {
		out = append(out, vc.comboLabels(loc, rec.Combo)...)
	}
	return out
}

func talentOrder(vc *Context, rec *herobuild.Record) []Finding {
	loc := buildLoc(rec)
	var out []Finding
	for i, id := range rec.Build.Abilities {
		field := loc.at(indexed("abilities", i))
		talent := vc.isTalent(rec.Hero, id)
		lvl, slot := vc.talentLevel(i)

		switch {
		case slot && talent:
			if a, ok := vc.Catalogues.Ability(id); ok && a.TalentLevel != 0 && a.TalentLevel != lvl {
				f := NewFinding(KindTalentOrder, field,
					"talent %q belongs to level %d but is picked at level %d (index %d)", id, a.TalentLevel, lvl, i)
				f.Token = string(id)
				out = append(out, f)
			}
		case slot:
			if id != vc.Rules.AttributeToken && !vc.Catalogues.HasAbility(rec.Hero, id) {
				continue
			}
			f := NewFinding(KindTalentOrder, field, "index %d (level %d) must be a talent, found %q", i, lvl, id)
			f.Token = string(id)
			out = append(out, f)
		case talent:
			f := NewFinding(KindTalentOrder, field, "talent %q at index %d (level %d) is not a talent slot", id, i, i+1)
			f.Token = string(id)
			out = append(out, f)
		}
	}
	return out
}

func itemShape(vc *Context, rec *herobuild.Record) []Finding {
	loc := buildLoc(rec)
	ib := &rec.Build.Items
	var out []Finding

	for _, req := range []struct {
		field string
		items []herobuild.ItemID
	}{
		{"items.starting", ib.Starting},
		{"items.core", ib.Core},
		{"items.neutral", ib.Neutral},
	} {
		if len(req.items) == 0 {
			out = append(out, NewFinding(KindMissingField, loc.at(req.field), "%s must not be empty", req.field))
		}
	}
	if len(ib.Situational) == 0 {
		out = append(out, NewFinding(KindEmptySituational, loc.at("items.situational"),
			"items.situational is empty; every build should suggest at least one situational item"))
	}

	listed := make(map[herobuild.ItemID]struct{})
	for _, list := range [][]herobuild.ItemID{ib.Starting, ib.EarlyGame, ib.MidGame, ib.LateGame, ib.Situational} {
		for _, id := range list {
			if _, known := vc.Catalogues.Item(id); !known {
				// A misspelt list entry is reported by cross-reference; the
				// core item it was meant to be is not missing.
				return out
			}
			listed[id] = struct{}{}
		}
	}
	for i, id := range ib.Core {
		if _, known := vc.Catalogues.Item(id); !known {
			continue
		}
		if _, ok := listed[id]; !ok {
			f := NewFinding(KindCoreItemNotListed, loc.at(indexed("items.core", i)),
				"core item %q does not appear in starting, earlyGame, midGame, lateGame or situational", id)
			f.Token = string(id)
			out = append(out, f)
		}
	}
	return out
}

func companionShape(rec *herobuild.Record) []Finding {
	loc := buildLoc(rec).at("items.companion")
	comp := rec.Build.Items.Companion
	switch {
	case rec.HasCompanionUnit && comp == nil:
		return []Finding{NewFinding(KindCompanionBuild, loc, "hero has a companion unit but the build has no companion item build")}
	case !rec.HasCompanionUnit && comp != nil:
		return []Finding{NewFinding(KindCompanionBuild, loc, "companion item build given for a hero without a companion unit")}
	case comp != nil && len(comp.Starting) == 0:
		return []Finding{NewFinding(KindMissingField, loc.at("items.companion.starting"), "companion starting items must not be empty")}
	}
	return nil
}

// forbiddenText reports every forbidden character in text, one finding each.
func (vc *Context) forbiddenText(loc Location, text string) []Finding {
	if text == "" || len(vc.forbidden) == 0 {
		return nil
	}
	var out []Finding
	off := 0
	for _, r := range text {
		if slices.Contains(vc.forbidden, r) {
			out = append(out, NewFinding(KindForbiddenCharacter, loc.withOffset(off),
				"character %q at offset %d cannot be exported to guides", r, off))
		}
		off++
	}
	return out
}

func (vc *Context) comboLabels(loc Location, combo []herobuild.Token) []Finding {
	var out []Finding
	for i, tok := range combo {
		if vc.isText(tok) {
			out = append(out, vc.forbiddenText(loc.at(indexed("combo", i)), string(tok))...)
		}
	}
	return out
}

type counterGroup struct {
	field string
	items []herobuild.CounterItem
}

// counterGroups returns the three lists of a phase with their field paths.
func counterGroups(ps herobuild.PhaseSet) []counterGroup {
	prefix := fmt.Sprintf("counterItems.%s.", ps.Phase)
	return []counterGroup{
		{prefix + "all", ps.Set.All},
		{prefix + "support", ps.Set.Support},
		{prefix + "core", ps.Set.Core},
	}
}
