package evaluation

import (
	rand "math/rand/v2"
	"sync"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/randutil"
)

// Picker chooses the local opponent's hand.
type Picker interface {
	Pick() game.Hand
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func() game.Hand

// Pick calls f()
func (f PickerFunc) Pick() game.Hand {
	return f()
}

// RandomPicker draws uniformly from the five hands. It is safe for concurrent use.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded with seed. The same seed produces the
// same sequence of hands.
func NewRandomPicker(seed int64) *RandomPicker {
	return &RandomPicker{rng: randutil.New(seed)}
}

// Pick returns the next hand
func (p *RandomPicker) Pick() game.Hand {
	p.mu.Lock()
	defer p.mu.Unlock()
	return game.Hands[p.rng.IntN(game.HandCount)]
}
