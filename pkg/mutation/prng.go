package mutation

import (
	"fmt"
	"math/rand/v2"
)

// PseudoRandom is the deterministic random source threaded through every
// Init and Mutate call.
//
// Every sampling method is a pure function of (internal state, arguments):
// a fresh instance seeded with the same seed produces the same sequence.
// Tests drive mutators with scripted implementations of this interface.
//
// Methods panic on out-of-domain arguments (e.g. IndexIn(0)); such calls
// indicate engine bugs, not user errors.
type PseudoRandom interface {
	// ClosedRange returns a uniform value in the closed interval [lo, hi].
	// It handles ranges spanning the full signed 64-bit domain without
	// overflow. Panics if lo > hi.
	ClosedRange(lo, hi int64) int64

	// IndexIn returns a uniform index in [0, n). Panics if n <= 0.
	IndexIn(n int) int

	// Choice returns a uniform boolean.
	Choice() bool

	// TrueInOneOutOf returns true with probability 1/n. Panics if n < 1.
	TrueInOneOutOf(n int) bool

	// Fill overwrites p with uniform random bytes.
	Fill(p []byte)

	// Bytes returns n uniform random bytes.
	Bytes(n int) []byte
}

// NewPseudoRandom returns a PseudoRandom backed by a seeded PCG source.
func NewPseudoRandom(seed uint64) PseudoRandom {
	return &seededRand{rng: rand.New(rand.NewPCG(seed, seed))}
}

// PickIn returns a uniform element of xs. Panics if xs is empty.
func PickIn[T any](prng PseudoRandom, xs []T) T {
	return xs[prng.IndexIn(len(xs))]
}

// WeightedIndex returns an index in [0, len(weights)) with probability
// proportional to its weight. Panics if no weight is positive or any weight
// is negative.
func WeightedIndex(prng PseudoRandom, weights []int) int {
	total := 0

	for i, w := range weights {
		if w < 0 {
			panic(fmt.Sprintf("mutation: negative weight %d at index %d", w, i))
		}

		total += w
	}

	if total <= 0 {
		panic("mutation: weights sum to zero")
	}

	n := prng.IndexIn(total)
	for i, w := range weights {
		if n < w {
			return i
		}

		n -= w
	}

	// Unreachable: n < total by construction.
	panic("mutation: weighted index out of range")
}

type seededRand struct {
	rng *rand.Rand
}

func (r *seededRand) ClosedRange(lo, hi int64) int64 {
	if lo > hi {
		panic(fmt.Sprintf("mutation: invalid interval [%d, %d]", lo, hi))
	}

	// Width of the interval as an unsigned count, computed in two's
	// complement so that intervals wider than MaxInt64 do not overflow.
	width := uint64(hi) - uint64(lo) + 1
	if width == 0 {
		// [MinInt64, MaxInt64]: every 64-bit pattern is in range.
		return int64(r.rng.Uint64())
	}

	return lo + int64(r.rng.Uint64N(width))
}

func (r *seededRand) IndexIn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("mutation: IndexIn(%d), need n > 0", n))
	}

	return r.rng.IntN(n)
}

func (r *seededRand) Choice() bool {
	return r.rng.Uint64()&1 == 1
}

func (r *seededRand) TrueInOneOutOf(n int) bool {
	if n < 1 {
		panic(fmt.Sprintf("mutation: TrueInOneOutOf(%d), need n >= 1", n))
	}

	return r.IndexIn(n) == 0
}

func (r *seededRand) Fill(p []byte) {
	// rand/v2 sources have no Read; drain Uint64 eight bytes at a time.
	i := 0
	for ; i+8 <= len(p); i += 8 {
		v := r.rng.Uint64()
		for j := range 8 {
			p[i+j] = byte(v >> (8 * j))
		}
	}

	if i < len(p) {
		v := r.rng.Uint64()
		for ; i < len(p); i++ {
			p[i] = byte(v)
			v >>= 8
		}
	}
}

func (r *seededRand) Bytes(n int) []byte {
	p := make([]byte, n)
	r.Fill(p)

	return p
}
