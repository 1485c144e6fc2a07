package validate

import (
	"errors"
	"fmt"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Rules holds the tunable constants of the checks. The zero value is not
// usable; start from [DefaultRules].
type Rules struct {
	// AbilityCount is the exact length of every ability sequence.
	AbilityCount int

	// TalentLevels are the hero levels whose pick must be a talent. The
	// ability at sequence index level-1 is the pick for that level.
	TalentLevels []int

	// TalentMarker is the generic placeholder for "any talent".
	TalentMarker herobuild.AbilityID

	// AttributeToken is the reserved token for an attribute point. It is
	// valid in every slot that is not a talent slot.
	AttributeToken herobuild.AbilityID

	// ActionTokens are combo entries that are neither abilities nor items.
	ActionTokens []herobuild.Token

	// ForbiddenCharacters may not occur in any exported text.
	ForbiddenCharacters string

	// StartingBudget is the inclusive gold ceiling for starting items.
	StartingBudget int

	// StartingBudgetFloor is the inclusive lower bound below which a
	// starting build is flagged for review.
	StartingBudgetFloor int

	// CounterDisplayLimit is how many counter items the in-game UI shows for
	// one phase: all plus the larger of support and core.
	CounterDisplayLimit int

	// Creators is the closed set of accepted guide authors.
	Creators []herobuild.Creator

	// Suggestions enables "did you mean" hints on unknown identifiers.
	Suggestions bool
}

// DefaultRules returns the rules of the current game version.
func DefaultRules() Rules {
	return Rules{
		AbilityCount:        25,
		TalentLevels:        []int{10, 15, 20, 25},
		TalentMarker:        "talent",
		AttributeToken:      "special_bonus_attributes",
		ActionTokens:        []herobuild.Token{"attack"},
		ForbiddenCharacters: "'",
		StartingBudget:      600,
		StartingBudgetFloor: 550,
		CounterDisplayLimit: 6,
		Creators:            append([]herobuild.Creator(nil), herobuild.DefaultCreators...),
		Suggestions:         true,
	}
}

// Check reports inconsistent rule values. All problems are joined.
func (r Rules) Check() error {
	var errs []error
	if r.AbilityCount <= 0 {
		errs = append(errs, fmt.Errorf("abilityCount must be positive, got %d", r.AbilityCount))
	}
	prev := 0
	for i, lvl := range r.TalentLevels {
		switch {
		case lvl <= prev:
			errs = append(errs, fmt.Errorf("talentLevels[%d]: levels must be strictly ascending, got %d after %d", i, lvl, prev))
		case lvl > r.AbilityCount:
			errs = append(errs, fmt.Errorf("talentLevels[%d]: level %d is beyond abilityCount %d", i, lvl, r.AbilityCount))
		}
		prev = lvl
	}
	if r.TalentMarker == "" {
		errs = append(errs, errors.New("talentMarker is required"))
	}
	if r.AttributeToken == "" {
		errs = append(errs, errors.New("attributeToken is required"))
	}
	if r.StartingBudget < 0 {
		errs = append(errs, fmt.Errorf("startingBudget must not be negative, got %d", r.StartingBudget))
	}
	if r.StartingBudgetFloor > r.StartingBudget {
		errs = append(errs, fmt.Errorf("startingBudgetFloor %d exceeds startingBudget %d", r.StartingBudgetFloor, r.StartingBudget))
	}
	if r.CounterDisplayLimit <= 0 {
		errs = append(errs, fmt.Errorf("counterDisplayLimit must be positive, got %d", r.CounterDisplayLimit))
	}
	if len(r.Creators) == 0 {
		errs = append(errs, errors.New("at least one creator is required"))
	}
	return errors.Join(errs...)
}
