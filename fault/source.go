// Package fault generates the transient errors injected into the memory
// array under test.
package fault

import (
	"math"
	"math/rand"
	"time"
)

// A Source decides how many bits flip in a cycle and where each flip lands.
type Source interface {
	// FlipCount returns the number of bits to flip this cycle.
	FlipCount() int

	// Location returns the cell and bit index of one flip.
	Location() (cell, bit int)
}

// poissonSource draws flip counts from a Poisson distribution and locations
// uniformly over the memory geometry, all from one shared stream so that a
// run is reproducible given its seed.
type poissonSource struct {
	rng      *rand.Rand
	expNegL  float64
	numCells int
	numBits  int
}

// FlipCount draws a Poisson-distributed count with the configured mean,
// using Knuth's multiplication method.
func (s *poissonSource) FlipCount() int {
	k := 0
	p := 1.0

	for {
		p *= s.rng.Float64()
		if p <= s.expNegL {
			return k
		}
		k++
	}
}

func (s *poissonSource) Location() (cell, bit int) {
	cell = s.rng.Intn(s.numCells)
	bit = s.rng.Intn(s.numBits)

	return cell, bit
}

// SourceBuilder creates fault sources.
type SourceBuilder struct {
	lambda   float64
	seed     int64
	numCells int
	numBits  int
}

// WithLambda sets the mean number of flips per cycle. Negative rates are
// rejected by Build.
func (b SourceBuilder) WithLambda(lambda float64) SourceBuilder {
	b.lambda = lambda
	return b
}

// WithSeed sets the seed of the random stream. A zero seed makes Build seed
// from the wall clock.
func (b SourceBuilder) WithSeed(seed int64) SourceBuilder {
	b.seed = seed
	return b
}

// WithGeometry sets the memory geometry that flip locations are drawn over.
func (b SourceBuilder) WithGeometry(numCells, numBits int) SourceBuilder {
	b.numCells = numCells
	b.numBits = numBits
	return b
}

// Build creates a fault source.
func (b SourceBuilder) Build() Source {
	if b.lambda < 0 {
		panic("fault rate must not be negative")
	}

	if b.numCells <= 0 || b.numBits <= 0 {
		panic("memory geometry must be positive")
	}

	seed := b.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &poissonSource{
		rng:      rand.New(rand.NewSource(seed)),
		expNegL:  math.Exp(-b.lambda),
		numCells: b.numCells,
		numBits:  b.numBits,
	}
}
