package dht

import (
	"math/rand/v2"
	"sync"
)

// runtimeRand draws from the goroutine-safe top-level generator.
type runtimeRand struct{}

func (runtimeRand) Float64() float64 { return rand.Float64() }

// lockedRand serializes access to a caller-supplied source.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(src rand.Source) *lockedRand {
	return &lockedRand{r: rand.New(src)}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
