package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Severity classifies a finding. Only warnings leave the verdict untouched.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"

	// SeverityFatal marks findings that end a run before or while records
	// are checked. A report holding one has no other findings.
	SeverityFatal Severity = "fatal"
)

// IsValid reports whether s is a recognised severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityWarning, SeverityError, SeverityFatal:
		return true
	}
	return false
}

// FailsRun reports whether a finding of this severity makes the verdict fail.
func (s Severity) FailsRun() bool {
	return s == SeverityError || s == SeverityFatal
}

// Kind is the stable name of a finding type. Kinds are part of the report
// format and must never be renamed.
type Kind string

const (
	KindCatalogueLoad       Kind = "CatalogueLoadError"
	KindAbilityCount        Kind = "AbilityCountError"
	KindTalentOrder         Kind = "TalentOrderError"
	KindForbiddenCharacter  Kind = "ForbiddenCharacterError"
	KindDuplicateGuideLink  Kind = "DuplicateGuideLinkError"
	KindMissingField        Kind = "MissingFieldError"
	KindInvalidValue        Kind = "InvalidValueError"
	KindCompanionBuild      Kind = "CompanionBuildError"
	KindCoreItemNotListed   Kind = "CoreItemNotListedError"
	KindUnknownAbility      Kind = "UnknownAbilityError"
	KindUnknownItem         Kind = "UnknownItemError"
	KindBudgetExceeded      Kind = "StartingBudgetExceededError"
	KindBudgetUnderused     Kind = "StartingBudgetUnderusedWarning"
	KindCounterItemOverflow Kind = "CounterItemOverflowWarning"
	KindEmptySituational    Kind = "EmptySituationalWarning"
	KindValidationTimedOut  Kind = "ValidationTimedOut"
	KindToolingError        Kind = "ToolingError"
)

var kindSeverity = map[Kind]Severity{
	KindCatalogueLoad:       SeverityFatal,
	KindAbilityCount:        SeverityError,
	KindTalentOrder:         SeverityError,
	KindForbiddenCharacter:  SeverityError,
	KindDuplicateGuideLink:  SeverityError,
	KindMissingField:        SeverityError,
	KindInvalidValue:        SeverityError,
	KindCompanionBuild:      SeverityError,
	KindCoreItemNotListed:   SeverityError,
	KindUnknownAbility:      SeverityError,
	KindUnknownItem:         SeverityError,
	KindBudgetExceeded:      SeverityError,
	KindBudgetUnderused:     SeverityWarning,
	KindCounterItemOverflow: SeverityWarning,
	KindEmptySituational:    SeverityWarning,
	KindValidationTimedOut:  SeverityFatal,
	KindToolingError:        SeverityFatal,
}

// Severity returns the fixed severity of k. Unknown kinds are errors.
func (k Kind) Severity() Severity {
	if s, ok := kindSeverity[k]; ok {
		return s
	}
	return SeverityError
}

// HeroLevel is the build index of findings that concern the hero record
// itself rather than one of its builds.
const HeroLevel = -1

// Location addresses the data a finding is about.
type Location struct {
	Hero string `json:"hero,omitempty" yaml:"hero,omitempty"`

	// Build is the index into the hero's builds, or [HeroLevel].
	Build int `json:"build" yaml:"build"`

	// Field is the path below the hero or build, e.g. "items.starting[2]"
	// or "counterItems.laningPhase.all[1].info".
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	// Offset is the rune offset inside a text field, when relevant.
	Offset *int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// String renders the location as "hero/builds[i].field@offset".
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Hero)
	if l.Build != HeroLevel {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString("builds[")
		b.WriteString(strconv.Itoa(l.Build))
		b.WriteByte(']')
	}
	if l.Field != "" {
		if l.Build != HeroLevel {
			b.WriteByte('.')
		} else if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(l.Field)
	}
	if l.Offset != nil {
		b.WriteByte('@')
		b.WriteString(strconv.Itoa(*l.Offset))
	}
	return b.String()
}

// Finding is one violation reported by a validator.
type Finding struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Location Location `json:"location" yaml:"location"`
	Message  string   `json:"message" yaml:"message"`

	// Token is the offending identifier, when the finding is about one.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Related lists other locations involved, such as the first holder of a
	// duplicated guide link.
	Related []Location `json:"related,omitempty" yaml:"related,omitempty"`

	// Suggestion is the closest catalogue identifier to an unknown Token.
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// NewFinding builds a finding with the severity implied by kind.
func NewFinding(kind Kind, loc Location, format string, args ...any) Finding {
	return Finding{
		Kind:     kind,
		Severity: kind.Severity(),
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Fatal builds a run-level fatal finding with no record location.
func Fatal(kind Kind, err error) Finding {
	return NewFinding(kind, Location{Build: HeroLevel}, "%v", err)
}

// at returns a copy of loc pointing at field.
func (l Location) at(field string) Location {
	l.Field = field
	return l
}

// withOffset returns a copy of loc carrying a text offset.
func (l Location) withOffset(off int) Location {
	l.Offset = &off
	return l
}

func heroLoc(hero string) Location {
	return Location{Hero: hero, Build: HeroLevel}
}

func buildLoc(rec *herobuild.Record) Location {
	return Location{Hero: rec.Hero, Build: rec.BuildIndex}
}

func indexed(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
