// Package rng provides the injectable random source used by combat.
// Position tracking makes battles reproducible across save/load when a
// fixed seed is supplied.
package rng

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw, enabling save/restore.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a new deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float returns a random float64 in [0, 1).
func (r *RNG) Float() float64 {
	r.pos++
	return r.src.Float64()
}

// Range returns a random float64 in [min, max).
func (r *RNG) Range(min, max float64) float64 {
	r.pos++
	return min + r.src.Float64()*(max-min)
}

// Intn returns a random int in [0, n). n must be positive.
// Every draw consumes exactly one underlying Float64 so Restore can
// replay the stream regardless of which methods were called.
func (r *RNG) Intn(n int) int {
	r.pos++
	v := int(r.src.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Chance rolls a percentage check: true with probability pct/100.
func (r *RNG) Chance(pct float64) bool {
	r.pos++
	return r.src.Float64()*100 < pct
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// Restore creates an RNG and advances it to the given position. This
// reproduces the exact RNG state for save/load.
func Restore(seed int64, position int64) *RNG {
	r := New(seed)
	for i := int64(0); i < position; i++ {
		r.src.Float64()
	}
	r.pos = position
	return r
}
