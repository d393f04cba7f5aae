package pricefeed

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// Source supplies the current quote for every known asset. Implementations
// must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context) (map[string]decimal.Decimal, error)
}

// StaticSource replays a fixed price table. This mirrors the deployment the
// service was built for, where quotes are operator-configured rather than
// streamed from an exchange.
type StaticSource struct {
	prices map[string]decimal.Decimal
}

// NewStaticSource creates a StaticSource over a copy of the given table.
func NewStaticSource(prices map[string]decimal.Decimal) *StaticSource {
	cp := make(map[string]decimal.Decimal, len(prices))
	for id, p := range prices {
		cp[id] = p
	}
	return &StaticSource{prices: cp}
}

// Fetch returns the configured price table.
func (s *StaticSource) Fetch(context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(s.prices))
	for id, p := range s.prices {
		out[id] = p
	}
	return out, nil
}

// RandomWalkSource jitters each quote by up to ±maxStepBps basis points per
// fetch, never going below zero. Useful for demos and load tests where
// moving prices matter.
type RandomWalkSource struct {
	mu         sync.Mutex
	last       map[string]decimal.Decimal
	maxStepBps int64
	rng        *rand.Rand
}

// NewRandomWalkSource creates a RandomWalkSource starting from seed prices.
func NewRandomWalkSource(seed map[string]decimal.Decimal, maxStepBps int64, rngSeed int64) *RandomWalkSource {
	last := make(map[string]decimal.Decimal, len(seed))
	for id, p := range seed {
		last[id] = p
	}
	if maxStepBps <= 0 {
		maxStepBps = 50
	}
	return &RandomWalkSource{
		last:       last,
		maxStepBps: maxStepBps,
		rng:        rand.New(rand.NewSource(rngSeed)),
	}
}

// Fetch advances the walk one step and returns the new quotes.
func (s *RandomWalkSource) Fetch(context.Context) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(s.last))
	for id, p := range s.last {
		stepBps := s.rng.Int63n(2*s.maxStepBps+1) - s.maxStepBps
		factor := decimal.NewFromInt(10000 + stepBps).Div(decimal.NewFromInt(10000))
		next := p.Mul(factor)
		if next.IsNegative() {
			next = decimal.Zero
		}
		s.last[id] = next
		out[id] = next
	}
	return out, nil
}
