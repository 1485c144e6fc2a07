// Package validate checks normalised build records against the structural,
// cross-reference and economy rules, and reports every violation as a
// [Finding].
//
// Validators never stop at the first problem: each one inspects everything it
// is responsible for so that a single pass reports every defect. They are
// pure functions of their input and the shared [Context], which is read-only
// after [NewContext] returns, so any number of records may be validated
// concurrently.
package validate

import (
	"slices"
	"sort"
	"strings"

	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Validator checks one concern of hero and build records.
//
// ValidateHero receives each hero once and checks hero-level data.
// ValidateBuild receives each build record. Neither may modify its argument.
type Validator interface {
	Name() string
	ValidateHero(vc *Context, h *herobuild.Hero) []Finding
	ValidateBuild(vc *Context, rec *herobuild.Record) []Finding
}

// Default returns the standard validator set, sorted by name.
func Default() []Validator {
	vs := []Validator{Structural{}, CrossReference{}, Economy{}}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Name() < vs[j].Name() })
	return vs
}

// Context is the shared, immutable input of every validator during one run.
type Context struct {
	Catalogues *catalogue.Catalogues
	Rules      Rules

	talentSlots map[int]int // ability index -> hero level
	actions     map[herobuild.Token]struct{}
	forbidden   []rune
	creators    map[herobuild.Creator]struct{}

	itemIndex    *suggestIndex
	abilityIndex map[string]*suggestIndex
}

// NewContext precomputes the lookup tables derived from c and r.
func NewContext(c *catalogue.Catalogues, r Rules) *Context {
	vc := &Context{
		Catalogues:  c,
		Rules:       r,
		talentSlots: make(map[int]int, len(r.TalentLevels)),
		actions:     make(map[herobuild.Token]struct{}, len(r.ActionTokens)),
		forbidden:   []rune(r.ForbiddenCharacters),
		creators:    make(map[herobuild.Creator]struct{}, len(r.Creators)),
	}
	for _, lvl := range r.TalentLevels {
		vc.talentSlots[lvl-1] = lvl
	}
	for _, a := range r.ActionTokens {
		vc.actions[a] = struct{}{}
	}
	for _, cr := range r.Creators {
		vc.creators[cr] = struct{}{}
	}

	if r.Suggestions && c != nil {
		vc.itemIndex = newSuggestIndex(c.ItemIDs())
		vc.abilityIndex = make(map[string]*suggestIndex)
		for _, hero := range c.Heroes() {
			vc.abilityIndex[hero] = newSuggestIndex(c.HeroAbilities(hero))
		}
	}
	return vc
}

// talentLevel returns the hero level of ability index i, if i is a talent slot.
func (vc *Context) talentLevel(i int) (int, bool) {
	lvl, ok := vc.talentSlots[i]
	return lvl, ok
}

// isTalent reports whether id is a talent pick of hero.
func (vc *Context) isTalent(hero string, id herobuild.AbilityID) bool {
	if id == vc.Rules.TalentMarker {
		return true
	}
	if !vc.Catalogues.HasAbility(hero, id) {
		return false
	}
	a, _ := vc.Catalogues.Ability(id)
	return a.Talent
}

// isText reports whether the combo entry t is exported text rather than an
// identifier: a label with whitespace, or any entry holding a forbidden
// character, which no identifier can contain.
func (vc *Context) isText(t herobuild.Token) bool {
	return t.IsLabel() || strings.ContainsFunc(string(t), func(r rune) bool {
		return slices.Contains(vc.forbidden, r)
	})
}

// isAction reports whether t is a reserved combo action.
func (vc *Context) isAction(t herobuild.Token) bool {
	_, ok := vc.actions[t]
	return ok
}

func (vc *Context) validCreator(c herobuild.Creator) bool {
	_, ok := vc.creators[c]
	return ok
}

// suggestItem returns the closest known item id.
func (vc *Context) suggestItem(token string) string {
	s, _ := vc.itemIndex.closest(token)
	return s
}

// suggestAbility returns the closest ability id of hero.
func (vc *Context) suggestAbility(hero, token string) string {
	s, _ := vc.abilityIndex[hero].closest(token)
	return s
}

// creatorNames returns the configured creators for messages.
func (vc *Context) creatorNames() []string {
	out := make([]string, 0, len(vc.Rules.Creators))
	for _, c := range vc.Rules.Creators {
		out = append(out, string(c))
	}
	slices.Sort(out)
	return out
}
