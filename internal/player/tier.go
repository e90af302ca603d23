package player

// Tier is the ordered career rank derived purely from cumulative experience.
// It is recomputed on every read and never stored, so it cannot drift from
// the experience counter. The manually advanced promotion level lives on
// Player.TierLevel and is a separate concept.
type Tier int

const (
	TierIntern Tier = iota + 1
	TierJunior
	TierSenior
	TierStaff
	TierPrincipal
)

// TierForExperience maps cumulative experience onto the five-band ladder.
func TierForExperience(exp uint) Tier {
	switch {
	case exp <= 50:
		return TierIntern
	case exp <= 150:
		return TierJunior
	case exp <= 300:
		return TierSenior
	case exp <= 500:
		return TierStaff
	default:
		return TierPrincipal
	}
}

// TierForLevel maps a promotion ladder level onto a display tier, pinning
// levels past the ladder to the top rank.
func TierForLevel(level uint) Tier {
	if level < 1 {
		return TierIntern
	}
	if level > uint(TierPrincipal) {
		return TierPrincipal
	}
	return Tier(level)
}

func (t Tier) String() string {
	switch t {
	case TierIntern:
		return "Intern"
	case TierJunior:
		return "Junior Engineer"
	case TierSenior:
		return "Senior Engineer"
	case TierStaff:
		return "Staff Engineer"
	case TierPrincipal:
		return "Principal Engineer"
	default:
		return "Unranked"
	}
}
