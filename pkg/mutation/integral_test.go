package mutation_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/GratitechInc/jazzer/pkg/mutation"
	"github.com/GratitechInc/jazzer/pkg/mutation/mutatortest"
)

func i64(v int64) *int64 { return &v }

func mustCreate(t *testing.T, ref *mutation.TypeRef) mutation.Mutator {
	t.Helper()

	m, err := mutation.NewEngine().Create(ref)
	if err != nil {
		t.Fatalf("Create(%s): %v", ref, err)
	}

	return m
}

func TestIntegralConstructionErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ref  *mutation.TypeRef
		want error
	}{
		{
			name: "inverted",
			ref:  mutation.Int64Ref(mutation.Range{Min: i64(10), Max: i64(5)}),
			want: mutation.ErrInvalidRange,
		},
		{
			name: "singleton",
			ref:  mutation.Int64Ref(mutation.Range{Min: i64(5), Max: i64(5)}),
			want: mutation.ErrSingletonRange,
		},
		{
			name: "min_below_int8",
			ref:  mutation.Int8Ref(mutation.Range{Min: i64(-500)}),
			want: mutation.ErrInvalidRange,
		},
		{
			name: "max_above_int16",
			ref:  mutation.Int16Ref(mutation.Range{Max: i64(1 << 20)}),
			want: mutation.ErrInvalidRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := mutation.NewEngine().Create(tc.ref)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Create: err=%v, want %v", err, tc.want)
			}
		})
	}
}

func TestIntegralHalfOpenRangeFallsBackToNaturalLimit(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int8Ref(mutation.Range{Min: i64(100)}))

	prng := mutation.NewPseudoRandom(0)

	for range 1000 {
		v := m.Init(prng).(int64)
		if v < 100 || v > math.MaxInt8 {
			t.Fatalf("init outside [100, 127]: %d", v)
		}
	}
}

// Narrow range [10, 20]: init draw 0 lands on the smallest special value;
// the wire form is fixed-width big-endian; an all-ones raw folds to 11.
func TestIntegralNarrowRangeScenario(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int64Ref(mutation.Range{Min: i64(10), Max: i64(20)}))

	// Special values are {10, 20}; scripted draw 0 selects 10.
	prng := mutatortest.NewScript(int64(0))

	if got, want := m.Init(prng).(int64), int64(10); got != want {
		t.Fatalf("init: got=%d, want=%d", got, want)
	}

	if !prng.Exhausted() {
		t.Fatal("init drew more randomness than scripted")
	}

	out := mutation.NewWriter(nil)
	m.Write(int64(10), out)

	want := []byte{0, 0, 0, 0, 0, 0, 0, 0x0A}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("write(10): got=%v, want=%v", out.Bytes(), want)
	}

	// raw = -1: 10 + |(-1 - 10) mod 10| = 11.
	in := mutation.NewReader(bytes.Repeat([]byte{0xFF}, 8))
	if got, want := m.Read(in).(int64), int64(11); got != want {
		t.Fatalf("read(FF..FF): got=%d, want=%d", got, want)
	}
}

// Default-bounds byte domain: all four special values {-128, 0, 1, 127}
// must each show up in at least 10% of inits.
func TestIntegralSpecialValueDistribution(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int8Ref())

	prng := mutation.NewPseudoRandom(0)
	counts := make(map[int64]int)

	const draws = 1000

	for range draws {
		counts[m.Init(prng).(int64)]++
	}

	for _, special := range []int64{math.MinInt8, 0, 1, math.MaxInt8} {
		if got := counts[special]; got < draws/10 {
			t.Fatalf("special value %d drawn %d/%d times, want >= %d",
				special, got, draws, draws/10)
		}
	}
}

// Bit-flip edge: value 128 in [0, 255], forced flip of bit 7 yields 0.
func TestIntegralBitFlipEdge(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int16Ref(mutation.Range{Min: i64(0), Max: i64(255)}))

	// TrueInOneOutOf(4) -> true selects the bit flip; largest mutable bit
	// for [0, 255] is 8, and index 7 toggles the value's own top bit.
	prng := mutatortest.NewScript(true, 7)

	if got, want := m.Mutate(int64(128), prng).(int64), int64(0); got != want {
		t.Fatalf("mutate(128): got=%d, want=%d", got, want)
	}

	if !prng.Exhausted() {
		t.Fatal("mutate drew more randomness than scripted")
	}
}

func TestIntegralBitFlipOutOfRangeRedraws(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int16Ref(mutation.Range{Min: i64(0), Max: i64(200)}))

	// Flipping bit 7 of 128 yields 0 (in range); flipping bit 6 of 200
	// yields 136 (in range); flipping bit 7 of 200 yields 72... pick a
	// flip that overflows: bit 6 of 190 -> 254 > 200 forces a redraw.
	prng := mutatortest.NewScript(true, 6, int64(42))

	if got, want := m.Mutate(int64(190), prng).(int64), int64(42); got != want {
		t.Fatalf("mutate(190): got=%d, want=%d", got, want)
	}
}

func TestIntegralMutateAlwaysChanges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ref  *mutation.TypeRef
	}{
		{"tiny", mutation.Int64Ref(mutation.Range{Min: i64(0), Max: i64(1)})},
		{"narrow", mutation.Int64Ref(mutation.Range{Min: i64(10), Max: i64(20)})},
		{"full_int8", mutation.Int8Ref()},
		{"full_int64", mutation.Int64Ref()},
		{"negative", mutation.Int64Ref(mutation.Range{Min: i64(-100), Max: i64(-50)})},
		// No mutable bit exists on the non-negative side of [-5, 0]; the
		// bit-flip operator must fall back to a uniform draw.
		{"zero_upper_bound", mutation.Int64Ref(mutation.Range{Min: i64(-5), Max: i64(0)})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := mustCreate(t, tc.ref)
			prng := mutation.NewPseudoRandom(7)

			v := m.Init(prng).(int64)

			for range 1000 {
				next := m.Mutate(v, prng).(int64)
				if next == v {
					t.Fatalf("mutate returned its input %d", v)
				}

				v = next
			}
		})
	}
}

func TestIntegralRangeInvariant(t *testing.T) {
	t.Parallel()

	m := mustCreate(t, mutation.Int32Ref(mutation.Range{Min: i64(-7), Max: i64(13)}))
	prng := mutation.NewPseudoRandom(11)

	v := m.Init(prng).(int64)

	for range 2000 {
		if v < -7 || v > 13 {
			t.Fatalf("value %d escaped [-7, 13]", v)
		}

		v = m.Mutate(v, prng).(int64)
	}
}

func TestIntegralReadWidths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		ref   *mutation.TypeRef
		input []byte
		want  int64
		left  int
	}{
		{"int8", mutation.Int8Ref(), []byte{0xFF, 0xAA}, -1, 1},
		{"int16", mutation.Int16Ref(), []byte{0x01, 0x00}, 256, 0},
		{"int32", mutation.Int32Ref(), []byte{0x80, 0, 0, 0}, math.MinInt32, 0},
		{"int64_short_read", mutation.Int64Ref(), []byte{0x01}, 1 << 56, 0},
		{"int64_empty", mutation.Int64Ref(), nil, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := mustCreate(t, tc.ref)
			in := mutation.NewReader(tc.input)

			if got := m.Read(in).(int64); got != tc.want {
				t.Fatalf("read: got=%d, want=%d", got, tc.want)
			}

			if got := in.Remaining(); got != tc.left {
				t.Fatalf("remaining: got=%d, want=%d", got, tc.left)
			}
		})
	}
}

func TestForceInRangeTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		value, lo, hi int64
		want          int64
	}{
		{"in_range", 5, 0, 10, 5},
		{"at_lo", 0, 0, 10, 0},
		{"at_hi", 10, 0, 10, 0},
		{"above", 15, 0, 10, 5},
		{"below_narrow", -1, 10, 20, 11},
		{"wide_wrap_above", math.MaxInt64, math.MinInt64, math.MaxInt64 - 1, math.MaxInt64 - 2},
		{"wide_in_range", -1, math.MinInt64, math.MaxInt64 - 1, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := mutation.ForceInRange(tc.value, tc.lo, tc.hi); got != tc.want {
				t.Fatalf("forceInRange(%d, %d, %d): got=%d, want=%d",
					tc.value, tc.lo, tc.hi, got, tc.want)
			}
		})
	}
}

// Property: the fold lands in [lo, hi] for every raw 64-bit value and every
// non-degenerate interval.
func FuzzForceInRange(f *testing.F) {
	f.Add(int64(0), int64(0), int64(1))
	f.Add(int64(-1), int64(10), int64(20))
	f.Add(int64(math.MaxInt64), int64(math.MinInt64), int64(math.MaxInt64-1))
	f.Add(int64(math.MinInt64), int64(-5), int64(5))
	f.Add(int64(42), int64(math.MinInt64), int64(0))

	f.Fuzz(func(t *testing.T, value, a, b int64) {
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}

		if lo == hi {
			t.Skip("degenerate interval")
		}

		got := mutation.ForceInRange(value, lo, hi)
		if got < lo || got > hi {
			t.Fatalf("forceInRange(%d, %d, %d) = %d, out of range", value, lo, hi, got)
		}
	})
}

// Property: write-then-read reproduces any value the mutator produced.
func FuzzIntegralRoundTrip(f *testing.F) {
	f.Add(uint64(0), uint8(1))
	f.Add(uint64(1), uint8(10))
	f.Add(uint64(12345), uint8(100))

	f.Fuzz(func(t *testing.T, seed uint64, steps uint8) {
		m, err := mutation.NewEngine().Create(
			mutation.Int64Ref(mutation.Range{Min: i64(-1000), Max: i64(1000)}))
		if err != nil {
			t.Fatal(err)
		}

		prng := mutation.NewPseudoRandom(seed)
		v := m.Init(prng)

		for range steps {
			out := mutation.NewWriter(nil)
			m.Write(v, out)

			back := m.Read(mutation.NewReader(out.Bytes()))
			if back != v {
				t.Fatalf("round trip: wrote %v, read %v", v, back)
			}

			v = m.Mutate(v, prng)
		}
	})
}

// Property: read accepts any bytes and stays in range.
func FuzzIntegralDecoderTotality(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xFF})
	f.Add(bytes.Repeat([]byte{0xFF}, 8))
	f.Add([]byte{0x80, 0, 0, 0, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := mutation.NewEngine().Create(
			mutation.Int64Ref(mutation.Range{Min: i64(10), Max: i64(20)}))
		if err != nil {
			t.Fatal(err)
		}

		v := m.Read(mutation.NewReader(data)).(int64)
		if v < 10 || v > 20 {
			t.Fatalf("decoded %d outside [10, 20]", v)
		}
	})
}
