package validate_test

import (
	"testing"

	"github.com/yongy146/dota-brain-sub002/internal/catalogue"
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

func cost(n int) *int { return &n }

func testAbilities() []catalogue.Ability {
	return []catalogue.Ability{
		{ID: "sven_storm_bolt", Hero: "sven"},
		{ID: "sven_great_cleave", Hero: "sven"},
		{ID: "sven_warcry", Hero: "sven"},
		{ID: "sven_gods_strength", Hero: "sven"},
		{ID: "special_bonus_unique_sven_10", Hero: "sven", Talent: true, TalentLevel: 10},
		{ID: "special_bonus_unique_sven_15", Hero: "sven", Talent: true, TalentLevel: 15},
		{ID: "special_bonus_unique_sven_20", Hero: "sven", Talent: true, TalentLevel: 20},
		{ID: "special_bonus_unique_sven_25", Hero: "sven", Talent: true, TalentLevel: 25},
		{ID: "axe_berserkers_call", Hero: "axe"},
		{ID: "axe_battle_hunger", Hero: "axe"},
		{ID: "axe_counter_helix", Hero: "axe"},
		{ID: "axe_culling_blade", Hero: "axe"},
		{ID: "lone_druid_spirit_bear", Hero: "lone_druid"},
	}
}

func testItems() []catalogue.Item {
	return []catalogue.Item{
		{ID: "tango", Cost: cost(90)},
		{ID: "branches", Cost: cost(50)},
		{ID: "quelling_blade", Cost: cost(130)},
		{ID: "gauntlets", Cost: cost(140)},
		{ID: "magic_stick", Cost: cost(200)},
		{ID: "power_treads", Cost: cost(1400)},
		{ID: "echo_sabre", Cost: cost(2700)},
		{ID: "black_king_bar", Cost: cost(4050)},
		{ID: "blink", Cost: cost(2250)},
		{ID: "silver_edge", Cost: cost(5450)},
		{ID: "ward_observer", Cost: cost(0)},
		{ID: "broom_handle", Cost: cost(0), Neutral: true},
		{ID: "mysterious_hat", Cost: cost(0), Neutral: true},
	}
}

func testCatalogues(t *testing.T) *catalogue.Catalogues {
	t.Helper()
	c, err := catalogue.New(testAbilities(), testItems())
	if err != nil {
		t.Fatalf("catalogue.New: %v", err)
	}
	return c
}

func testContext(t *testing.T) *validate.Context {
	t.Helper()
	return validate.NewContext(testCatalogues(t), validate.DefaultRules())
}

// svenAbilities is a valid 25-entry sequence with talents at levels 10/15/20/25.
func svenAbilities() []herobuild.AbilityID {
	return []herobuild.AbilityID{
		"sven_storm_bolt", "sven_great_cleave", "sven_storm_bolt", "sven_warcry", "sven_storm_bolt",
		"sven_gods_strength", "sven_storm_bolt", "sven_great_cleave", "sven_great_cleave", "special_bonus_unique_sven_10",
		"sven_great_cleave", "sven_gods_strength", "sven_warcry", "sven_warcry", "special_bonus_unique_sven_15",
		"sven_warcry", "special_bonus_attributes", "sven_gods_strength", "special_bonus_attributes", "special_bonus_unique_sven_20",
		"special_bonus_attributes", "special_bonus_attributes", "special_bonus_attributes", "special_bonus_attributes", "special_bonus_unique_sven_25",
	}
}

// svenBuild is a build without findings. Its starting items cost exactly 600.
func svenBuild() herobuild.HeroBuild {
	return herobuild.HeroBuild{
		Roles:            []herobuild.Role{herobuild.RoleCarry},
		SteamGuideLinkID: 2699915996,
		Abilities:        svenAbilities(),
		Items: herobuild.ItemBuild{
			Starting:    []herobuild.ItemID{"quelling_blade", "tango", "gauntlets", "gauntlets", "branches", "branches"},
			EarlyGame:   []herobuild.ItemID{"magic_stick", "power_treads"},
			MidGame:     []herobuild.ItemID{"echo_sabre", "black_king_bar"},
			LateGame:    []herobuild.ItemID{"silver_edge"},
			Situational: []herobuild.ItemID{"blink"},
			Core:        []herobuild.ItemID{"power_treads", "echo_sabre", "black_king_bar"},
			Neutral:     []herobuild.ItemID{"broom_handle", "mysterious_hat"},
		},
	}
}

func svenContent() herobuild.HeroContent {
	return herobuild.HeroContent{
		Creator:         "TNTCN",
		GameplayVersion: "7.37",
		DamageType:      herobuild.DamagePhysical,
		Blurb:           "Cleave through creep waves and fight at level 6.",
		Builds:          []herobuild.HeroBuild{svenBuild()},
		Combo:           []herobuild.Token{"sven_storm_bolt", "sven_warcry", "black_king_bar", "attack"},
		CounterItems: herobuild.CounterItems{
			LaningPhase: herobuild.CounterItemSet{
				All:     []herobuild.CounterItem{{Item: "magic_stick"}},
				Support: []herobuild.CounterItem{{Item: "ward_observer"}},
			},
			MidGame: herobuild.CounterItemSet{
				All: []herobuild.CounterItem{{Item: "blink"}},
			},
			LateGame: herobuild.CounterItemSet{
				All:  []herobuild.CounterItem{{Item: "silver_edge", Info: "Breaks passives"}},
				Core: []herobuild.CounterItem{{Item: "black_king_bar"}},
			},
		},
	}
}

// runAll runs the default validators and the guide link check the way a
// single-threaded run would.
func runAll(vc *validate.Context, c *herobuild.Catalog) []validate.Finding {
	nc := herobuild.Normalize(c)
	var out []validate.Finding
	for _, v := range validate.Default() {
		for i := range nc.Heroes {
			h := &nc.Heroes[i]
			out = append(out, v.ValidateHero(vc, h)...)
			for j := range h.Records {
				out = append(out, v.ValidateBuild(vc, &h.Records[j])...)
			}
		}
	}
	return append(out, validate.GuideLinks(nc)...)
}

func svenCatalog(mutate func(*herobuild.HeroContent)) *herobuild.Catalog {
	hc := svenContent()
	if mutate != nil {
		mutate(&hc)
	}
	return &herobuild.Catalog{Heroes: map[string]herobuild.HeroContent{"sven": hc}}
}

func kinds(fs []validate.Finding) []validate.Kind {
	out := make([]validate.Kind, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Kind)
	}
	return out
}
