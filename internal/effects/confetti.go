// Package effects generates the decorative confetti particles pushed to the
// page.
package effects

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// ParticleLifetime is how long a particle stays on the page.
const ParticleLifetime = 6 * time.Second

// DefaultColors is the confetti palette.
var DefaultColors = []string{"#ec4899", "#a855f7", "#eab308", "#10b981", "#f97316"}

// Particle describes one confetti piece. Times are in seconds.
type Particle struct {
	Left     float64 `json:"left"` // percent of the container width
	Color    string  `json:"color"`
	Delay    float64 `json:"delay"`
	Duration float64 `json:"duration"`
	Round    bool    `json:"round"`
	Lifetime float64 `json:"lifetime"`
}

// Spawner produces random particles while enabled.
type Spawner struct {
	colors  []string
	enabled atomic.Bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSpawner returns a spawner drawing from src. A nil src seeds from the
// runtime; an empty palette selects DefaultColors.
func NewSpawner(colors []string, enabled bool, src rand.Source) *Spawner {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	s := &Spawner{colors: colors, rng: rand.New(src)}
	s.enabled.Store(enabled)
	return s
}

// Enabled reports whether particles are produced.
func (s *Spawner) Enabled() bool { return s.enabled.Load() }

// Toggle flips the enabled flag and returns the new value.
func (s *Spawner) Toggle() bool {
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Spawn returns a new particle, or false while disabled.
func (s *Spawner) Spawn() (Particle, bool) {
	if !s.enabled.Load() {
		return Particle{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Particle{
		Left:     s.rng.Float64() * 100,
		Color:    s.colors[s.rng.IntN(len(s.colors))],
		Delay:    s.rng.Float64() * 3,
		Duration: s.rng.Float64()*3 + 2,
		Round:    s.rng.Float64() > 0.5,
		Lifetime: ParticleLifetime.Seconds(),
	}, true
}
