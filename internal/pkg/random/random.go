package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a seeded generator safe for concurrent use.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func FromTime() *Source { return New(uint64(time.Now().UnixNano())) }

// IntN returns a value in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
