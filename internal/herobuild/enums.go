package herobuild

// DamageType is the hero's predominant damage type.
type DamageType string

const (
	DamageNeutral  DamageType = "neutral"
	DamagePhysical DamageType = "physical"
	DamageMagical  DamageType = "magical"
	DamagePure     DamageType = "pure"
)

// IsValid reports whether d is a recognised damage type.
func (d DamageType) IsValid() bool {
	switch d {
	case DamageNeutral, DamagePhysical, DamageMagical, DamagePure:
		return true
	}
	return false
}

// Role is a build role tag.
type Role string

const (
	RoleCarry       Role = "carry"
	RoleMid         Role = "mid"
	RoleOfflane     Role = "offlane"
	RoleSupport     Role = "support"
	RoleHardSupport Role = "hard_support"
)

// IsValid reports whether r is a recognised role.
func (r Role) IsValid() bool {
	switch r {
	case RoleCarry, RoleMid, RoleOfflane, RoleSupport, RoleHardSupport:
		return true
	}
	return false
}

// SteamGuideRole is the role category a build is published under on the
// guide platform.
type SteamGuideRole string

const (
	// SteamGuideRoleNone is what the normaliser stores when no role is given.
	SteamGuideRoleNone        SteamGuideRole = "none"
	SteamGuideRoleCarry       SteamGuideRole = "carry"
	SteamGuideRoleMid         SteamGuideRole = "mid"
	SteamGuideRoleOfflane     SteamGuideRole = "offlane"
	SteamGuideRoleSupport     SteamGuideRole = "support"
	SteamGuideRoleHardSupport SteamGuideRole = "hard_support"
	SteamGuideRoleCore        SteamGuideRole = "core"
)

// IsValid reports whether s is a recognised guide role.
func (s SteamGuideRole) IsValid() bool {
	switch s {
	case SteamGuideRoleNone, SteamGuideRoleCarry, SteamGuideRoleMid, SteamGuideRoleOfflane,
		SteamGuideRoleSupport, SteamGuideRoleHardSupport, SteamGuideRoleCore:
		return true
	}
	return false
}

// Creator identifies a guide author. The set of valid creators is
// configuration, not code.
type Creator string

// DefaultCreators are the guide authors accepted when none are configured.
var DefaultCreators = []Creator{"TNTCN", "YoonA"}

// Phase is a game phase used to group counter items.
type Phase string

const (
	PhaseLaning   Phase = "laningPhase"
	PhaseMidGame  Phase = "midGame"
	PhaseLateGame Phase = "lateGame"
)
