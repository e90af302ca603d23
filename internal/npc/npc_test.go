package npc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Runbinlin/jbn-daily/internal/rng"
)

func roster(n int) []Encounter {
	out := make([]Encounter, n)
	for i := range out {
		out[i] = Encounter{
			Name:        fmt.Sprintf("npc-%d", i),
			Description: "lurks by the coffee machine",
			Model:       "colleague",
			Prompts:     []string{"got a minute?", "quick favor?"},
			Accept:      Option{Summary: "help out", Skill: 2, Stress: 1},
			Reject:      Option{Summary: "beg off", Skill: 0, Stress: -1},
		}
	}
	return out
}

func TestDailySubset(t *testing.T) {
	t.Run("size stays within 1 and maxPerDay", func(t *testing.T) {
		src := rng.NewSeeded(5)
		for i := 0; i < 200; i++ {
			subset := DailySubset(src, roster(10), 3)
			require.GreaterOrEqual(t, len(subset), 1)
			require.LessOrEqual(t, len(subset), 3)
		}
	})

	t.Run("small rosters cap the subset", func(t *testing.T) {
		src := rng.NewSeeded(5)
		for i := 0; i < 50; i++ {
			subset := DailySubset(src, roster(2), 3)
			require.LessOrEqual(t, len(subset), 2)
		}
	})

	t.Run("interacted resets for the new day", func(t *testing.T) {
		r := roster(4)
		for i := range r {
			r[i].Interacted = true
		}
		subset := DailySubset(rng.NewSeeded(9), r, 3)
		for _, enc := range subset {
			assert.False(t, enc.Interacted)
		}
	})

	t.Run("subset members are independent of the roster", func(t *testing.T) {
		r := roster(4)
		subset := DailySubset(rng.NewSeeded(9), r, 3)
		subset[0].Interacted = true
		subset[0].Prompts[0] = "mutated"
		for _, enc := range r {
			assert.False(t, enc.Interacted)
			assert.Equal(t, "got a minute?", enc.Prompts[0])
		}
	})

	t.Run("empty roster yields nothing", func(t *testing.T) {
		assert.Nil(t, DailySubset(rng.NewSeeded(1), nil, 3))
		assert.Nil(t, DailySubset(rng.NewSeeded(1), roster(3), 0))
	})
}

func TestRandomPrompt(t *testing.T) {
	t.Run("picks an authored prompt", func(t *testing.T) {
		enc := roster(1)[0]
		got := enc.RandomPrompt(&rng.Scripted{Ints: []int{1}})
		assert.Equal(t, "quick favor?", got)
	})

	t.Run("falls back to the description", func(t *testing.T) {
		enc := roster(1)[0]
		enc.Prompts = nil
		assert.Equal(t, enc.Description, enc.RandomPrompt(&rng.Scripted{}))
	})
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "reject", Reject.String())
}
