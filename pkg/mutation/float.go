package mutation

import (
	"math"
)

// Floating-point mutation mirrors the integral strategy: special-value
// jumps seed boundary coverage, single-bit flips explore neighboring bit
// patterns, uniform draws cover the rest. Values compare by bit pattern so
// that NaN and signed zeros are handled like any other value.

// float64Mutator mutates 64-bit IEEE-754 values over the full domain.
type float64Mutator struct {
	special []float64
}

func newFloat64Mutator() *float64Mutator {
	return &float64Mutator{
		special: []float64{
			0,
			math.Copysign(0, -1),
			1,
			-1,
			math.NaN(),
			math.Inf(1),
			math.Inf(-1),
			math.SmallestNonzeroFloat64,
			math.MaxFloat64,
		},
	}
}

func (m *float64Mutator) Init(prng PseudoRandom) any {
	sentinel := len(m.special)

	choice := prng.ClosedRange(0, int64(sentinel))
	if choice < int64(sentinel) {
		return m.special[choice]
	}

	return math.Float64frombits(uint64(prng.ClosedRange(math.MinInt64, math.MaxInt64)))
}

func (m *float64Mutator) Mutate(value any, prng PseudoRandom) any {
	previous := math.Float64bits(value.(float64))

	v := previous
	for v == previous {
		switch {
		case prng.TrueInOneOutOf(4):
			v = math.Float64bits(PickIn(prng, m.special))
		case prng.Choice():
			// Flip one exponent or mantissa bit; the sign is reachable
			// through special values and uniform draws.
			v = previous ^ 1<<prng.IndexIn(63)
		default:
			v = uint64(prng.ClosedRange(math.MinInt64, math.MaxInt64))
		}
	}

	return math.Float64frombits(v)
}

func (m *float64Mutator) Read(in *Reader) any {
	return math.Float64frombits(in.Uint64())
}

func (m *float64Mutator) Write(value any, out *Writer) {
	out.Uint64(math.Float64bits(value.(float64)))
}

func (m *float64Mutator) Detach(value any) any { return value }

func (m *float64Mutator) DebugString(func(Mutator) bool) string { return "Float64" }

func (m *float64Mutator) FixedSize() bool { return true }

func (m *float64Mutator) SharesState() bool { return false }

// float32Mutator mutates 32-bit IEEE-754 values over the full domain.
type float32Mutator struct {
	special []float32
}

func newFloat32Mutator() *float32Mutator {
	return &float32Mutator{
		special: []float32{
			0,
			float32(math.Copysign(0, -1)),
			1,
			-1,
			float32(math.NaN()),
			float32(math.Inf(1)),
			float32(math.Inf(-1)),
			math.SmallestNonzeroFloat32,
			math.MaxFloat32,
		},
	}
}

func (m *float32Mutator) Init(prng PseudoRandom) any {
	sentinel := len(m.special)

	choice := prng.ClosedRange(0, int64(sentinel))
	if choice < int64(sentinel) {
		return m.special[choice]
	}

	return math.Float32frombits(uint32(prng.ClosedRange(0, math.MaxUint32)))
}

func (m *float32Mutator) Mutate(value any, prng PseudoRandom) any {
	previous := math.Float32bits(value.(float32))

	v := previous
	for v == previous {
		switch {
		case prng.TrueInOneOutOf(4):
			v = math.Float32bits(PickIn(prng, m.special))
		case prng.Choice():
			v = previous ^ 1<<prng.IndexIn(31)
		default:
			v = uint32(prng.ClosedRange(0, math.MaxUint32))
		}
	}

	return math.Float32frombits(v)
}

func (m *float32Mutator) Read(in *Reader) any {
	return math.Float32frombits(in.Uint32())
}

func (m *float32Mutator) Write(value any, out *Writer) {
	out.Uint32(math.Float32bits(value.(float32)))
}

func (m *float32Mutator) Detach(value any) any { return value }

func (m *float32Mutator) DebugString(func(Mutator) bool) string { return "Float32" }

func (m *float32Mutator) FixedSize() bool { return true }

func (m *float32Mutator) SharesState() bool { return false }
