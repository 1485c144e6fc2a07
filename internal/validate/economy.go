package validate

import (
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Economy checks numeric limits: the starting gold budget of every build and
// the counter item display limit of every phase.
type Economy struct{}

func (Economy) Name() string { return "economy" }

func (Economy) ValidateHero(vc *Context, h *herobuild.Hero) []Finding {
	loc := heroLoc(h.ID)
	limit := vc.Rules.CounterDisplayLimit
	var out []Finding
	for _, ps := range h.Content.CounterItems.ByPhase() {
		s := ps.Set
		shown := len(s.All) + max(len(s.Support), len(s.Core))
		if shown > limit && !s.OverflowIntentional {
			out = append(out, NewFinding(KindCounterItemOverflow, loc.at("counterItems."+string(ps.Phase)),
				"%s lists %d counter items but only %d are displayed; set overflowIntentional if this is deliberate",
				ps.Phase, shown, limit))
		}
	}
	return out
}

// ValidateBuild sums the starting items of the hero and, if present, of the
// companion unit. Unknown items count as zero gold and are reported by
// [CrossReference]; while any are present the total is only a lower bound, so
// the underuse warning is withheld.
func (Economy) ValidateBuild(vc *Context, rec *herobuild.Record) []Finding {
	ib := &rec.Build.Items
	lists := [][]herobuild.ItemID{ib.Starting}
	if ib.Companion != nil {
		lists = append(lists, ib.Companion.Starting)
	}

	total, count, unknown := 0, 0, false
	for _, list := range lists {
		for _, id := range list {
			count++
			it, ok := vc.Catalogues.Item(id)
			if !ok {
				unknown = true
				continue
			}
			total += it.GoldCost()
		}
	}
	if count == 0 {
		return nil
	}

	loc := buildLoc(rec).at("items.starting")
	switch {
	case total > vc.Rules.StartingBudget:
		return []Finding{NewFinding(KindBudgetExceeded, loc,
			"starting items cost %d gold, budget is %d", total, vc.Rules.StartingBudget)}
	case total < vc.Rules.StartingBudgetFloor && !unknown:
		return []Finding{NewFinding(KindBudgetUnderused, loc,
			"starting items cost %d gold, below the review threshold of %d", total, vc.Rules.StartingBudgetFloor)}
	}
	return nil
}
