package mutation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/GratitechInc/jazzer/pkg/mutation"
)

// =============================================================================
// Fuzz Tests
//
// These tests verify PROPERTIES that should hold across many random inputs:
//   - Any byte input decodes to some in-domain value (decoder totality)
//   - Decoded values re-encode stably (read . write . read == read)
//   - Values produced by Init/Mutate survive a write/read round trip
//   - Mutate never returns its input
//   - Detach yields structurally equal, storage-independent values
//
// Unlike example tests which check specific scenarios, these explore the
// input space to find edge cases.
// =============================================================================

// complexRef builds a shape exercising every combinator at once:
//
//	Root {
//	    id     int64 [0, 1000]
//	    flag   bool
//	    name   string (1..6 runes)
//	    data   bytes (0..8)
//	    choice (bool | int16)
//	    extra  optional float64
//	    items  sequence<int32 [-5, 5]> (0..4)
//	}
func complexRef() *mutation.TypeRef {
	return mutation.RecordRef("Root",
		[]string{"id", "flag", "name", "data", "choice", "extra", "items"},
		[]*mutation.TypeRef{
			mutation.Int64Ref(mutation.Range{Min: i64(0), Max: i64(1000)}),
			mutation.BoolRef(),
			mutation.StringRef(mutation.UTF8Length{Min: 1, Max: 6}),
			mutation.BytesRef(mutation.SizeRange{Min: 0, Max: 8}),
			mutation.VariantRef("Choice",
				[]string{"b", "n"},
				[]*mutation.TypeRef{mutation.BoolRef(), mutation.Int16Ref()}),
			mutation.OptionalRef(mutation.Float64Ref()),
			mutation.SequenceRef(
				mutation.Int32Ref(mutation.Range{Min: i64(-5), Max: i64(5)}),
				mutation.SizeRange{Min: 0, Max: 4}),
		})
}

// -----------------------------------------------------------------------------
// FuzzEngineRoundTrip
//
// Property: for any seed, a value chain produced by Init and repeated Mutate
// calls round-trips through write/read at every step.
// -----------------------------------------------------------------------------

func FuzzEngineRoundTrip(f *testing.F) {
	f.Add(uint64(0), uint8(4))
	f.Add(uint64(1), uint8(16))
	f.Add(uint64(0xDEADBEEF), uint8(32))

	f.Fuzz(func(t *testing.T, seed uint64, steps uint8) {
		m, err := mutation.NewEngine().Create(complexRef())
		if err != nil {
			t.Fatal(err)
		}

		prng := mutation.NewPseudoRandom(seed)
		v := m.Init(prng)

		for range steps % 32 {
			out := mutation.NewWriter(nil)
			m.Write(v, out)

			back := m.Read(mutation.NewReader(out.Bytes()))
			if diff := cmp.Diff(v, back, cmpopts.EquateNaNs()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}

			next := m.Mutate(v, prng)
			if diff := cmp.Diff(v, next, cmpopts.EquateNaNs()); diff == "" {
				t.Fatal("mutate returned an equal value")
			}

			v = next
		}
	})
}

// -----------------------------------------------------------------------------
// FuzzEngineDecoderTotality
//
// Property: read accepts ANY byte input without panicking and produces a
// value that re-encodes stably.
// -----------------------------------------------------------------------------

func FuzzEngineDecoderTotality(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	// A plausible full encoding.
	seedW := mutation.NewWriter(nil)
	seedW.Uint64(7)
	seedW.Byte(1)
	seedW.Uvarint(2)
	seedW.Write([]byte("ab"))
	seedW.Uvarint(3)
	seedW.Write([]byte{1, 2, 3})
	seedW.Byte(1)
	seedW.Uint16(9)
	seedW.Byte(0)
	seedW.Uvarint(1)
	seedW.Uint32(5)
	f.Add(seedW.Bytes())

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := mutation.NewEngine().Create(complexRef())
		if err != nil {
			t.Fatal(err)
		}

		v := m.Read(mutation.NewReader(data))

		out := mutation.NewWriter(nil)
		m.Write(v, out)

		back := m.Read(mutation.NewReader(out.Bytes()))
		if diff := cmp.Diff(v, back, cmpopts.EquateNaNs()); diff != "" {
			t.Fatalf("decoded value did not re-encode stably (-want +got):\n%s", diff)
		}
	})
}

// -----------------------------------------------------------------------------
// FuzzEngineDetach
//
// Property: Detach returns a structurally equal value, and mutating the
// detached copy never changes the original's encoding.
// -----------------------------------------------------------------------------

func FuzzEngineDetach(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(42))

	f.Fuzz(func(t *testing.T, seed uint64) {
		m, err := mutation.NewEngine().Create(complexRef())
		if err != nil {
			t.Fatal(err)
		}

		prng := mutation.NewPseudoRandom(seed)
		v := m.Init(prng)

		detached := m.Detach(v)
		if diff := cmp.Diff(v, detached, cmpopts.EquateNaNs()); diff != "" {
			t.Fatalf("detach mismatch (-want +got):\n%s", diff)
		}

		before := mutation.NewWriter(nil)
		m.Write(v, before)

		// Drive the copy away from the original.
		d := detached
		for range 8 {
			d = m.Mutate(d, prng)
		}

		after := mutation.NewWriter(nil)
		m.Write(v, after)

		if string(before.Bytes()) != string(after.Bytes()) {
			t.Fatal("mutating the detached copy changed the original")
		}
	})
}
