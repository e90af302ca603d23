package player

import (
	"fmt"
	"math"

	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

// Player is the resource record for one run: skill and stress scores, the
// experience counter that drives the derived Tier, the manually advanced
// promotion level, and a bounded history log.
type Player struct {
	Name               string   `json:"name"`
	Experience         uint     `json:"experience"`
	Skill              int      `json:"skill"`
	Stress             int      `json:"stress"`
	DaysPlayed         uint     `json:"days_played"`
	Alive              bool     `json:"alive"`
	TierLevel          uint     `json:"tier_level"`
	PromotionAttempts  uint     `json:"promotion_attempts"`
	ZeroStressStreak   uint     `json:"zero_stress_streak"`
	DiedFromZeroStress bool     `json:"died_from_zero_stress"`
	History            []string `json:"history"`
}

// New returns a fresh, alive player at ladder level 1.
func New(name string) *Player {
	return &Player{
		Name:      name,
		Alive:     true,
		TierLevel: 1,
	}
}

// Tier is the rank implied by cumulative experience. Display only; the
// promotion ladder advances TierLevel independently.
func (p *Player) Tier() Tier {
	return TierForExperience(p.Experience)
}

// GainReward applies an option's reward tuple. Skill saturates at the int
// bounds and may go negative; experience grows only on strictly positive
// skill deltas so grinding negative options can never raise the tier; stress
// is clamped to [0, 100].
func (p *Player) GainReward(skillDelta, stressDelta int) {
	if skillDelta > 0 {
		p.Experience = satAddUint(p.Experience, uint(skillDelta))
	}
	p.Skill = satAdd(p.Skill, skillDelta)
	p.Stress = clamp(p.Stress+stressDelta, 0, 100)
}

// CheckDeath runs the daily survival roll. Order matters: the zero-stress
// streak is evaluated first and short-circuits everything else, then
// negative skill terminates without randomness, then the stress band roll.
func (p *Player) CheckDeath(src rng.Source, bal config.Balance) {
	p.DiedFromZeroStress = false

	if p.Stress == 0 {
		p.ZeroStressStreak++
	} else {
		p.ZeroStressStreak = 0
	}

	if p.ZeroStressStreak >= bal.ZeroStressStreak && rng.Chance(src, bal.ZeroStressRisk) {
		p.Alive = false
		p.DiedFromZeroStress = true
		return
	}

	if p.Skill < 0 {
		p.Alive = false
		return
	}

	if rng.Chance(src, bal.DeathRisk(p.Stress)) {
		p.Alive = false
	}
}

// DeathMessage is a pure function of the state CheckDeath left behind.
func (p *Player) DeathMessage() string {
	if p.DiedFromZeroStress {
		return "Two days straight with zero stress? You were basically furniture. The company quietly reclaimed your desk."
	}
	if p.Skill < 0 {
		return "Negative skill and you still showed up to standup. Security is waiting by your desk."
	}
	switch {
	case p.Stress >= 20 && p.Stress <= 29:
		return "That little pressure finished you off? Fragile."
	case p.Stress >= 30 && p.Stress <= 49:
		return "Worn out already? The backlog barely noticed you were here."
	case p.Stress >= 50 && p.Stress <= 69:
		return "You worked hard, just not hard enough for anyone to remember."
	case p.Stress >= 70 && p.Stress <= 100:
		return "The grind claimed another one. Nobody touched your keyboard for a week."
	default:
		return "Game over."
	}
}

// CanPromote reports whether skill meets the requirement for the current
// ladder level.
func (p *Player) CanPromote(bal config.Balance) bool {
	return p.Skill >= bal.PromotionRequirement(p.TierLevel)
}

// PromotionResult reports one promotion roll.
type PromotionResult struct {
	Success   bool
	LostSkill int
	NewTier   Tier
}

// AttemptPromotion rolls against the escalating failure chance. Failure
// halves skill (truncated toward zero) and counts the attempt; success bumps
// the ladder level and resets the attempt counter.
func (p *Player) AttemptPromotion(src rng.Source, bal config.Balance) PromotionResult {
	if rng.Chance(src, bal.PromotionFailureChance(p.PromotionAttempts)) {
		lost := p.Skill / 2
		p.Skill -= lost
		p.PromotionAttempts++
		return PromotionResult{Success: false, LostSkill: lost}
	}
	p.TierLevel++
	p.PromotionAttempts = 0
	return PromotionResult{Success: true, NewTier: p.Tier()}
}

// AddHistory appends a line tagged with the pre-increment day number and the
// signed deltas, evicting the oldest entry past the cap.
func (p *Player) AddHistory(text string, skillDelta, stressDelta int, cap int) {
	entry := fmt.Sprintf("day %d: %s [skill %+d | stress %+d]", p.DaysPlayed+1, text, skillDelta, stressDelta)
	p.History = append(p.History, entry)
	if cap > 0 && len(p.History) > cap {
		p.History = p.History[len(p.History)-cap:]
	}
}

func satAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	default:
		return a + b
	}
}

func satAddUint(a, b uint) uint {
	if a > math.MaxUint-b {
		return math.MaxUint
	}
	return a + b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
