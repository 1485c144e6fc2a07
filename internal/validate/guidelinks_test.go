package validate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

func axeContent() herobuild.HeroContent {
	hc := svenContent()
	hc.Combo = []herobuild.Token{"axe_berserkers_call", "axe_culling_blade"}
	b := &hc.Builds[0]
	b.Roles = []herobuild.Role{herobuild.RoleOfflane}
	b.Abilities = []herobuild.AbilityID{
		"axe_berserkers_call", "axe_counter_helix", "axe_counter_helix", "axe_battle_hunger", "axe_counter_helix",
		"axe_culling_blade", "axe_counter_helix", "axe_berserkers_call", "axe_berserkers_call", "talent",
		"axe_berserkers_call", "axe_culling_blade", "axe_battle_hunger", "axe_battle_hunger", "talent",
		"axe_battle_hunger", "special_bonus_attributes", "axe_culling_blade", "special_bonus_attributes", "talent",
		"special_bonus_attributes", "special_bonus_attributes", "special_bonus_attributes", "special_bonus_attributes", "talent",
	}
	return hc
}

func TestGuideLinks_DuplicateAcrossHeroes(t *testing.T) {
	t.Parallel()

	c := &herobuild.Catalog{Heroes: map[string]herobuild.HeroContent{
		"sven": svenContent(),
		"axe":  axeContent(),
	}}
	fs := runAll(testContext(t), c)
	if len(fs) != 1 {
		t.Fatalf("want exactly one finding, got %+v", fs)
	}
	f := fs[0]
	if f.Kind != validate.KindDuplicateGuideLink || f.Severity != validate.SeverityError {
		t.Fatalf("got %s (%s)", f.Kind, f.Severity)
	}
	wantLoc := validate.Location{Hero: "sven", Build: 0, Field: "steamGuideLinkId"}
	if diff := cmp.Diff(wantLoc, f.Location); diff != "" {
		t.Errorf("location (-want +got):\n%s", diff)
	}
	wantRelated := []validate.Location{{Hero: "axe", Build: 0, Field: "steamGuideLinkId"}}
	if diff := cmp.Diff(wantRelated, f.Related); diff != "" {
		t.Errorf("related (-want +got):\n%s", diff)
	}
}

func TestGuideLinks_OneFindingPerExtraHolder(t *testing.T) {
	t.Parallel()

	hc := svenContent()
	hc.Builds = append(hc.Builds, svenBuild(), svenBuild(), svenBuild())
	hc.Builds[3].SteamGuideLinkID = 42
	hc.Builds[2].SteamGuideLinkID = 0

	nc := herobuild.Normalize(&herobuild.Catalog{Heroes: map[string]herobuild.HeroContent{"sven": hc}})
	fs := validate.GuideLinks(nc)

	var builds []int
	for _, f := range fs {
		builds = append(builds, f.Location.Build)
		if f.Related[0].Build != 0 {
			t.Errorf("related build: got %d, want 0", f.Related[0].Build)
		}
	}
	if diff := cmp.Diff([]int{1}, builds); diff != "" {
		t.Errorf("duplicate holders (-want +got):\n%s", diff)
	}
}
