package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source is the single randomness abstraction used by the engine. Every
// stochastic decision (event draws, option shuffles, death rolls, promotion
// rolls, NPC subsets) goes through a Source so tests can supply a
// deterministic one.
type Source interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// IntN returns a uniform draw in [0, n). Panics if n <= 0.
	IntN(n int) int
}

type pcgSource struct {
	r *rand.Rand
}

func (s pcgSource) Float64() float64 { return s.r.Float64() }
func (s pcgSource) IntN(n int) int   { return s.r.IntN(n) }

// New returns a Source seeded from the OS entropy pool.
func New() Source {
	var buf [16]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// Entropy pool unavailable; fall back to the shared generator.
		return pcgSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	s1 := binary.BigEndian.Uint64(buf[:8])
	s2 := binary.BigEndian.Uint64(buf[8:])
	return pcgSource{r: rand.New(rand.NewPCG(s1, s2))}
}

// NewSeeded returns a reproducible Source for tests and replayable sessions.
func NewSeeded(seed uint64) Source {
	return pcgSource{r: rand.New(rand.NewPCG(seed, 0))}
}

// Chance runs a weighted boolean trial: true with probability p.
// p <= 0 never hits, p >= 1 always hits.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Shuffle performs a Fisher-Yates shuffle of n elements through swap.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		if i != j {
			swap(i, j)
		}
	}
}

// Scripted replays a fixed list of draws. Float64 pops from Floats and IntN
// pops from Ints modulo n; both fall back to zero once exhausted. Meant for
// forcing a specific branch in tests.
type Scripted struct {
	Floats []float64
	Ints   []int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

func (s *Scripted) IntN(n int) int {
	if n <= 0 {
		panic("rng: IntN with non-positive n")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	return v % n
}
