// Package mutation is a structure-aware mutation engine for coverage-guided
// fuzzing.
//
// Given a [TypeRef] describing a typed input shape (primitives, bounded
// integrals, records, variants, optionals, sequences, recursive shapes), an
// [Engine] assembles a [Mutator]: an object that can generate an initial
// random value, mutate an existing value into a neighboring one, serialize
// and deserialize the value to a stable byte form usable as a fuzz corpus
// entry, and detach an independent copy.
//
// # Basic Usage
//
//	eng := mutation.NewEngine()
//	lo, hi := int64(0), int64(100)
//	m, err := eng.Create(mutation.Int64Ref(mutation.Range{Min: &lo, Max: &hi}))
//	if err != nil {
//	    // construction error, carries the full type path
//	}
//
//	prng := mutation.NewPseudoRandom(seed)
//	v := m.Init(prng)
//	v = m.Mutate(v, prng)
//
//	out := mutation.NewWriter(nil)
//	m.Write(v, out)
//	back := m.Read(mutation.NewReader(out.Bytes()))
//
// # Contracts
//
// Every mutator keeps its declared range invariant across Init, Mutate and
// Read. Mutate always returns a value different from its input whenever the
// value domain has more than one element. Read is total: any byte input
// decodes to some in-domain value (short reads are zero-padded, out-of-range
// raw integers are folded back into range, excess bytes are left for the
// parent). Read(Write(v)) == v for any v the mutator itself produced.
//
// # Concurrency
//
// Mutators are not safe for concurrent use. The driver guarantees at most
// one call in flight per mutator; the only shared state is the
// [PseudoRandom] source the driver threads through each call.
package mutation
