package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeathBand maps a stress range to a daily death probability.
type DeathBand struct {
	MinStress int     `yaml:"min_stress" json:"min_stress"`
	MaxStress int     `yaml:"max_stress" json:"max_stress"`
	Chance    float64 `yaml:"chance" json:"chance"`
}

// Balance holds gameplay balance configuration. The defaults are the
// canonical ruleset; the YAML override exists so tuning stays a data change.
type Balance struct {
	// Death rules
	DeathBands        []DeathBand `yaml:"death_bands" json:"death_bands"`
	FallbackDeathRisk float64     `yaml:"fallback_death_risk" json:"fallback_death_risk"`
	ZeroStressStreak  uint        `yaml:"zero_stress_streak" json:"zero_stress_streak"`
	ZeroStressRisk    float64     `yaml:"zero_stress_risk" json:"zero_stress_risk"`

	// Promotion rules
	PromotionRequirements map[uint]int `yaml:"promotion_requirements" json:"promotion_requirements"`
	PromotionUnreachable  int          `yaml:"promotion_unreachable" json:"promotion_unreachable"`
	PromotionFailureStep  float64      `yaml:"promotion_failure_step" json:"promotion_failure_step"`
	PromotionFailureCap   float64      `yaml:"promotion_failure_cap" json:"promotion_failure_cap"`

	// Pacing
	HistoryCap    int `yaml:"history_cap" json:"history_cap"`
	MaxNPCsPerDay int `yaml:"max_npcs_per_day" json:"max_npcs_per_day"`
	WeekLength    int `yaml:"week_length" json:"week_length"`
}

// Default returns the canonical balance configuration.
func Default() Balance {
	return Balance{
		DeathBands: []DeathBand{
			{MinStress: 0, MaxStress: 19, Chance: 0},
			{MinStress: 20, MaxStress: 29, Chance: 0.05},
			{MinStress: 30, MaxStress: 49, Chance: 0.08},
			{MinStress: 50, MaxStress: 69, Chance: 0.20},
			{MinStress: 70, MaxStress: 100, Chance: 0.40},
		},
		FallbackDeathRisk: 0.25,
		ZeroStressStreak:  2,
		ZeroStressRisk:    0.15,
		PromotionRequirements: map[uint]int{
			1: 50,
			2: 150,
			3: 300,
			4: 500,
		},
		PromotionUnreachable: 9999,
		PromotionFailureStep: 0.05,
		PromotionFailureCap:  0.95,
		HistoryCap:           100,
		MaxNPCsPerDay:        3,
		WeekLength:           7,
	}
}

// DeathRisk returns the daily death probability for a stress value. Values
// outside every band use the fallback risk.
func (b Balance) DeathRisk(stress int) float64 {
	for _, band := range b.DeathBands {
		if stress >= band.MinStress && stress <= band.MaxStress {
			return band.Chance
		}
	}
	return b.FallbackDeathRisk
}

// PromotionRequirement returns the skill needed to attempt a promotion at
// the given ladder level. Levels past the ladder are effectively unreachable.
func (b Balance) PromotionRequirement(tierLevel uint) int {
	if req, ok := b.PromotionRequirements[tierLevel]; ok {
		return req
	}
	return b.PromotionUnreachable
}

// PromotionFailureChance escalates with each failed attempt and caps out.
func (b Balance) PromotionFailureChance(attempts uint) float64 {
	rate := b.PromotionFailureStep * float64(attempts+1)
	if rate > b.PromotionFailureCap {
		rate = b.PromotionFailureCap
	}
	return rate
}

// LoadBalance reads a YAML balance override from disk.
func LoadBalance(path string) (Balance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, err
	}
	var b Balance
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("parse balance config: %w", err)
	}
	b.ApplyDefaults()
	return b, nil
}

// ApplyDefaults fills in zero-valued sections from the canonical ruleset so
// partial overrides stay playable.
func (c *Balance) ApplyDefaults() {
	def := Default()
	if len(c.DeathBands) == 0 {
		c.DeathBands = def.DeathBands
	}
	if c.FallbackDeathRisk == 0 {
		c.FallbackDeathRisk = def.FallbackDeathRisk
	}
	if c.ZeroStressStreak == 0 {
		c.ZeroStressStreak = def.ZeroStressStreak
	}
	if c.ZeroStressRisk == 0 {
		c.ZeroStressRisk = def.ZeroStressRisk
	}
	if len(c.PromotionRequirements) == 0 {
		c.PromotionRequirements = def.PromotionRequirements
	}
	if c.PromotionUnreachable == 0 {
		c.PromotionUnreachable = def.PromotionUnreachable
	}
	if c.PromotionFailureStep == 0 {
		c.PromotionFailureStep = def.PromotionFailureStep
	}
	if c.PromotionFailureCap == 0 {
		c.PromotionFailureCap = def.PromotionFailureCap
	}
	if c.HistoryCap == 0 {
		c.HistoryCap = def.HistoryCap
	}
	if c.MaxNPCsPerDay == 0 {
		c.MaxNPCsPerDay = def.MaxNPCsPerDay
	}
	if c.WeekLength == 0 {
		c.WeekLength = def.WeekLength
	}
}
