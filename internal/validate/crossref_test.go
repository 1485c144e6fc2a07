package validate_test

import (
	"strings"
	"testing"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

func TestCrossReference_AbilityOfAnotherHero(t *testing.T) {
	t.Parallel()

	fs := runAll(testContext(t), svenCatalog(func(hc *herobuild.HeroContent) {
		hc.Builds[0].Abilities[1] = "axe_counter_helix"
	}))
	if len(fs) != 1 || fs[0].Kind != validate.KindUnknownAbility {
		t.Fatalf("want one UnknownAbilityError, got %+v", fs)
	}
	if !strings.Contains(fs[0].Message, `hero "axe"`) {
		t.Errorf("message should name the owning hero: %q", fs[0].Message)
	}
}

func TestCrossReference_NeutralList(t *testing.T) {
	t.Parallel()

	fs := runAll(testContext(t), svenCatalog(func(hc *herobuild.HeroContent) {
		hc.Builds[0].Items.Neutral[0] = "tango"
	}))
	assertFindings(t, fs, []validate.Kind{validate.KindUnknownItem}, []string{"items.neutral[0]"})
	if !strings.Contains(fs[0].Message, "not a neutral item") {
		t.Errorf("message: %q", fs[0].Message)
	}
}

func TestCrossReference_Combo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    herobuild.Token
		wantKind validate.Kind
	}{
		{name: "own ability", token: "sven_gods_strength"},
		{name: "item", token: "blink"},
		{name: "action", token: "attack"},
		{name: "label", token: "Jump in"},
		{name: "misspelt own ability", token: "sven_gods_strenght", wantKind: validate.KindUnknownAbility},
		{name: "other hero's ability", token: "axe_culling_blade", wantKind: validate.KindUnknownAbility},
		{name: "unknown item", token: "blinkk_dagger", wantKind: validate.KindUnknownItem},
		{name: "talent marker is not a combo token", token: "talent", wantKind: validate.KindUnknownItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := runAll(testContext(t), svenCatalog(func(hc *herobuild.HeroContent) {
				hc.Builds[0].Combo = []herobuild.Token{"sven_storm_bolt", tt.token}
			}))
			if tt.wantKind == "" {
				if len(fs) != 0 {
					t.Fatalf("want no findings, got %+v", fs)
				}
				return
			}
			assertFindings(t, fs, []validate.Kind{tt.wantKind}, []string{"combo[1]"})
		})
	}
}

func TestCrossReference_HeroComboIgnoredWhenOverridden(t *testing.T) {
	t.Parallel()

	// The hero combo is checked once at hero level, never again per build.
	fs := runAll(testContext(t), svenCatalog(func(hc *herobuild.HeroContent) {
		hc.Combo = append(hc.Combo, "nonexistent_item_xyz")
		hc.Builds = append(hc.Builds, svenBuild())
		hc.Builds[1].SteamGuideLinkID = 2699915997
	}))
	assertFindings(t, fs, []validate.Kind{validate.KindUnknownItem}, []string{"combo[4]"})
	if fs[0].Location.Build != validate.HeroLevel {
		t.Errorf("build: got %d, want hero level", fs[0].Location.Build)
	}
}

func TestCrossReference_Suggestions(t *testing.T) {
	t.Parallel()

	fs := runAll(testContext(t), svenCatalog(func(hc *herobuild.HeroContent) {
		hc.Builds[0].Abilities[0] = "sven_storm_blot"
		hc.Builds[0].Items.Situational[0] = "silver_egde"
	}))
	if len(fs) != 2 {
		t.Fatalf("want 2 findings, got %+v", fs)
	}
	if fs[0].Suggestion != "sven_storm_bolt" {
		t.Errorf("ability suggestion: got %q", fs[0].Suggestion)
	}
	if fs[1].Suggestion != "silver_edge" {
		t.Errorf("item suggestion: got %q", fs[1].Suggestion)
	}

	rules := validate.DefaultRules()
	rules.Suggestions = false
	vc := validate.NewContext(testCatalogues(t), rules)
	fs = runAll(vc, svenCatalog(func(hc *herobuild.HeroContent) {
		hc.Builds[0].Items.Situational[0] = "silver_egde"
	}))
	if len(fs) != 1 || fs[0].Suggestion != "" {
		t.Errorf("suggestions disabled but got %+v", fs)
	}
}
