package event

import (
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

// Origin identifies the authored slot of an option (0=A, 1=B, 2=C). It
// survives shuffling so analytics and tests can recover the authored order.
type Origin int

// Option is one authored outcome of an event. Immutable after authoring.
type Option struct {
	Skill  int    `json:"skill" yaml:"skill"`
	Stress int    `json:"stress" yaml:"stress"`
	Label  string `json:"label" yaml:"label"`
	Story  string `json:"story" yaml:"story"`
	Origin Origin `json:"origin" yaml:"-"`
}

// Event is a daily or weekly content unit with exactly three authored
// options. Presented holds the current display order and is regenerated on
// every draw.
type Event struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Options     [3]Option `json:"options"`
	Presented   [3]Option `json:"presented"`
}

// New builds an event from its three authored options, tagging origins.
func New(id int, name, description string, a, b, c Option) Event {
	a.Origin, b.Origin, c.Origin = 0, 1, 2
	ev := Event{
		ID:          id,
		Name:        name,
		Description: description,
		Options:     [3]Option{a, b, c},
	}
	ev.Presented = ev.Options
	return ev
}

// Reshuffle replaces the presented order with a uniform permutation of the
// three authored options. Called on every draw, including day one.
func (e *Event) Reshuffle(src rng.Source) {
	e.Presented = e.Options
	rng.Shuffle(src, len(e.Presented), func(i, j int) {
		e.Presented[i], e.Presented[j] = e.Presented[j], e.Presented[i]
	})
}

// PresentedAt returns the option at a 1-based display position.
func (e *Event) PresentedAt(position int) (Option, bool) {
	if position < 1 || position > len(e.Presented) {
		return Option{}, false
	}
	return e.Presented[position-1], true
}

// Clone returns a working copy safe to shuffle without touching the catalog
// template. Options are value types, so a plain copy suffices.
func (e Event) Clone() Event {
	return e
}
