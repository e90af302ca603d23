package npc

import (
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

// Option is one side of an encounter's accept/reject fork.
type Option struct {
	Summary string `json:"summary" yaml:"summary"`
	Detail  string `json:"detail" yaml:"detail"`
	Skill   int    `json:"skill" yaml:"skill"`
	Stress  int    `json:"stress" yaml:"stress"`
}

// Encounter is a once-per-day side interaction. Interacted is scoped to the
// current day and resets when the encounter is drawn into a fresh subset.
type Encounter struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Model       string   `json:"model" yaml:"model"`
	Prompts     []string `json:"prompts" yaml:"prompts"`
	Accept      Option   `json:"accept" yaml:"accept"`
	Reject      Option   `json:"reject" yaml:"reject"`
	Interacted  bool     `json:"interacted" yaml:"-"`
}

// RandomPrompt picks one prompt line uniformly, falling back to the base
// description when no prompts are authored.
func (e *Encounter) RandomPrompt(src rng.Source) string {
	if len(e.Prompts) == 0 {
		return e.Description
	}
	return e.Prompts[src.IntN(len(e.Prompts))]
}

// Clone returns a working copy whose prompt slice is independent of the
// catalog template.
func (e Encounter) Clone() Encounter {
	out := e
	out.Prompts = append([]string(nil), e.Prompts...)
	return out
}

// Decision resolves an active prompt.
type Decision int

const (
	Accept Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}

// ActivePrompt marks which encounter is mid-interaction and which prompt
// line was shown. It exists only between probe and resolve.
type ActivePrompt struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// DailySubset clones the roster, shuffles it, and takes a uniformly random
// count between 1 and min(maxPerDay, len(roster)). Every member starts the
// day with Interacted cleared. An empty roster yields an empty subset.
func DailySubset(src rng.Source, roster []Encounter, maxPerDay int) []Encounter {
	if len(roster) == 0 || maxPerDay <= 0 {
		return nil
	}
	pool := make([]Encounter, len(roster))
	for i, e := range roster {
		pool[i] = e.Clone()
	}
	rng.Shuffle(src, len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	take := maxPerDay
	if len(pool) < take {
		take = len(pool)
	}
	take = 1 + src.IntN(take)
	subset := pool[:take]
	for i := range subset {
		subset[i].Interacted = false
	}
	return subset
}
