package validate

import (
	"strings"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// CrossReference resolves every ability, item and combo token against the
// catalogues. Ability tokens must belong to the record's own hero; item
// tokens are global.
type CrossReference struct{}

func (CrossReference) Name() string { return "crossref" }

func (CrossReference) ValidateHero(vc *Context, h *herobuild.Hero) []Finding {
	loc := heroLoc(h.ID)
	out := vc.comboRefs(loc, h.ID, h.Content.Combo)

	for _, ps := range h.Content.CounterItems.ByPhase() {
		for _, g := range counterGroups(ps) {
			for i, ci := range g.items {
				if f, bad := vc.itemRef(loc.at(indexed(g.field, i)), ci.Item, false); bad {
					out = append(out, f)
				}
			}
		}
	}
	return out
}

func (CrossReference) ValidateBuild(vc *Context, rec *herobuild.Record) []Finding {
	loc := buildLoc(rec)
	var out []Finding

	for i, id := range rec.Build.Abilities {
		if f, bad := vc.abilityRef(loc.at(indexed("abilities", i)), rec.Hero, id); bad {
			out = append(out, f)
		}
	}

	for _, l := range itemLists(rec.Build.Items) {
		for i, id := range l.items {
			if f, bad := vc.itemRef(loc.at(indexed(l.field, i)), id, l.neutral); bad {
				out = append(out, f)
			}
		}
	}

	if rec.ComboOverride {
		out = append(out, vc.comboRefs(loc, rec.Hero, rec.Combo)...)
	}
	return out
}

type itemList struct {
	field   string
	items   []herobuild.ItemID
	neutral bool
}

// itemLists returns every item list of ib with its field path.
func itemLists(ib herobuild.ItemBuild) []itemList {
	out := []itemList{
		{field: "items.starting", items: ib.Starting},
		{field: "items.earlyGame", items: ib.EarlyGame},
		{field: "items.midGame", items: ib.MidGame},
		{field: "items.lateGame", items: ib.LateGame},
		{field: "items.situational", items: ib.Situational},
		{field: "items.core", items: ib.Core},
		{field: "items.neutral", items: ib.Neutral, neutral: true},
	}
	if c := ib.Companion; c != nil {
		out = append(out,
			itemList{field: "items.companion.starting", items: c.Starting},
			itemList{field: "items.companion.earlyGame", items: c.EarlyGame},
			itemList{field: "items.companion.midGame", items: c.MidGame},
			itemList{field: "items.companion.lateGame", items: c.LateGame},
			itemList{field: "items.companion.situational", items: c.Situational},
			itemList{field: "items.companion.core", items: c.Core},
			itemList{field: "items.companion.neutral", items: c.Neutral, neutral: true},
		)
	}
	return out
}

// abilityRef checks one entry of an ability sequence. The talent marker and
// the attribute token are always resolvable; where they may sit is a
// structural question.
func (vc *Context) abilityRef(loc Location, hero string, id herobuild.AbilityID) (Finding, bool) {
	if id == vc.Rules.AttributeToken || id == vc.Rules.TalentMarker || vc.Catalogues.HasAbility(hero, id) {
		return Finding{}, false
	}
	return vc.unknownAbility(loc, hero, id), true
}

func (vc *Context) unknownAbility(loc Location, hero string, id herobuild.AbilityID) Finding {
	var f Finding
	if a, ok := vc.Catalogues.Ability(id); ok {
		f = NewFinding(KindUnknownAbility, loc, "ability %q belongs to hero %q, not %q", id, a.Hero, hero)
	} else {
		f = NewFinding(KindUnknownAbility, loc, "unknown ability %q for hero %q", id, hero)
	}
	f.Token = string(id)
	f.Suggestion = vc.suggestAbility(hero, string(id))
	return f
}

func (vc *Context) itemRef(loc Location, id herobuild.ItemID, neutral bool) (Finding, bool) {
	it, ok := vc.Catalogues.Item(id)
	switch {
	case !ok:
		f := NewFinding(KindUnknownItem, loc, "unknown item %q", id)
		f.Token = string(id)
		f.Suggestion = vc.suggestItem(string(id))
		return f, true
	case neutral && !it.Neutral:
		f := NewFinding(KindUnknownItem, loc, "item %q is not a neutral item", id)
		f.Token = string(id)
		return f, true
	}
	return Finding{}, false
}

// comboRefs resolves combo tokens against the hero's abilities, then items,
// then the reserved actions. Free text is skipped. An unresolved
// token carrying the hero prefix is reported as an ability, anything else as
// an item.
func (vc *Context) comboRefs(loc Location, hero string, combo []herobuild.Token) []Finding {
	var out []Finding
	for i, tok := range combo {
		if vc.isText(tok) || vc.isAction(tok) {
			continue
		}
		if vc.Catalogues.HasAbility(hero, herobuild.AbilityID(tok)) {
			continue
		}
		if _, ok := vc.Catalogues.Item(herobuild.ItemID(tok)); ok {
			continue
		}

		field := loc.at(indexed("combo", i))
		_, owned := vc.Catalogues.Ability(herobuild.AbilityID(tok))
		if owned || strings.HasPrefix(string(tok), hero+"_") {
			out = append(out, vc.unknownAbility(field, hero, herobuild.AbilityID(tok)))
			continue
		}
		f := NewFinding(KindUnknownItem, field, "unknown combo token %q", tok)
		f.Token = string(tok)
		f.Suggestion = vc.suggestItem(string(tok))
		out = append(out, f)
	}
	return out
}
