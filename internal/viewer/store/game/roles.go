package game

import "github.com/arbourlane/vigil/internal/engine"

// Role category predicates back the pre-game roster gate: a startable game
// needs one role from each category. The Godfather counts as Mafia-aligned,
// so a roster without a plain Mafioso can still start.

// IsMafiaAligned reports whether the role belongs to the Mafia faction.
func IsMafiaAligned(r engine.Role) bool {
	return r == engine.RoleGodfather || r == engine.RoleMafioso
}

// IsInvestigative reports whether the role can investigate other players.
func IsInvestigative(r engine.Role) bool {
	return r == engine.RoleSheriff || r == engine.RoleInvestigator
}

// IsProtective reports whether the role can protect other players.
func IsProtective(r engine.Role) bool {
	return r == engine.RoleDoctor || r == engine.RoleBodyguard
}

// IsRestraining reports whether the role can jail or restrain a player.
func IsRestraining(r engine.Role) bool {
	return r == engine.RoleJailor
}

// FactionFor returns the faction a role belongs to.
func FactionFor(r engine.Role) engine.Faction {
	switch r {
	case engine.RoleGodfather, engine.RoleMafioso:
		return engine.FactionMafia
	case engine.RoleJester:
		return engine.FactionNeutral
	default:
		return engine.FactionTown
	}
}
