package mutation

// repeatedMutator mutates variable-length homogeneous sequences with length
// in [minSize, maxSize]. Values are []any slices in index order.
type repeatedMutator struct {
	inner   Mutator
	minSize int
	maxSize int
}

// NewRepeated builds a mutator over sequences of inner values with length
// bounded to [minSize, maxSize].
func NewRepeated(inner Mutator, minSize, maxSize int) (Mutator, error) {
	if minSize < 0 || maxSize < minSize {
		return nil, ErrInvalidSize
	}

	if minSize == 0 && maxSize == 0 {
		// Only the empty sequence is in the domain.
		return nil, ErrSingletonRange
	}

	return &repeatedMutator{inner: inner, minSize: minSize, maxSize: maxSize}, nil
}

func (m *repeatedMutator) Init(prng PseudoRandom) any {
	n := int(prng.ClosedRange(int64(m.minSize), int64(m.maxSize)))

	vals := make([]any, n)
	for i := range vals {
		vals[i] = m.inner.Init(prng)
	}

	return vals
}

// Mutation operators, chosen uniformly and retried until the value changes:
// append an element, drop one, duplicate one, swap two adjacent, mutate one
// in place. Length changes clamp to the size bounds.
func (m *repeatedMutator) Mutate(value any, prng PseudoRandom) any {
	previous := value.([]any)

	for {
		switch prng.IndexIn(5) {
		case 0: // append
			if len(previous) >= m.maxSize {
				continue
			}

			return insertAt(previous, len(previous), m.inner.Init(prng))
		case 1: // drop
			if len(previous) <= m.minSize || len(previous) == 0 {
				continue
			}

			pos := prng.IndexIn(len(previous))

			out := make([]any, 0, len(previous)-1)
			out = append(out, previous[:pos]...)
			out = append(out, previous[pos+1:]...)

			return out
		case 2: // duplicate
			if len(previous) == 0 || len(previous) >= m.maxSize {
				continue
			}

			pos := prng.IndexIn(len(previous))

			return insertAt(previous, pos+1, m.inner.Detach(previous[pos]))
		case 3: // swap adjacent
			if len(previous) < 2 {
				continue
			}

			pos := prng.IndexIn(len(previous) - 1)
			if encodesEqual(m.inner, previous[pos], previous[pos+1]) {
				continue
			}

			out := make([]any, len(previous))
			copy(out, previous)
			out[pos], out[pos+1] = out[pos+1], out[pos]

			return out
		default: // mutate in place
			if len(previous) == 0 {
				continue
			}

			pos := prng.IndexIn(len(previous))

			out := make([]any, len(previous))
			copy(out, previous)
			out[pos] = m.inner.Mutate(out[pos], prng)

			return out
		}
	}
}

func insertAt(vals []any, pos int, v any) []any {
	out := make([]any, 0, len(vals)+1)
	out = append(out, vals[:pos]...)
	out = append(out, v)
	out = append(out, vals[pos:]...)

	return out
}

// encodesEqual compares two values through their byte form.
func encodesEqual(m Mutator, a, b any) bool {
	wa := NewWriter(nil)
	m.Write(a, wa)

	wb := NewWriter(nil)
	m.Write(b, wb)

	return string(wa.Bytes()) == string(wb.Bytes())
}

func (m *repeatedMutator) Read(in *Reader) any {
	n := clampSize(in.Uvarint(), m.minSize, m.maxSize)

	// Fixed-size elements consume at least one byte each: short-circuit
	// the declared length so short inputs cannot demand huge allocations
	// of identical zero-decoded elements.
	if m.inner.FixedSize() {
		if limit := in.Remaining() + 1; n > limit && limit >= m.minSize {
			n = limit
		}
	}

	vals := make([]any, n)
	for i := range vals {
		vals[i] = m.inner.Read(in)
	}

	return vals
}

func (m *repeatedMutator) Write(value any, out *Writer) {
	vals := value.([]any)
	out.Uvarint(uint64(len(vals)))

	for _, v := range vals {
		m.inner.Write(v, out)
	}
}

func (m *repeatedMutator) Detach(value any) any {
	vals := value.([]any)

	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = m.inner.Detach(v)
	}

	return out
}

func (m *repeatedMutator) DebugString(inCycle func(Mutator) bool) string {
	if inCycleCheck(inCycle, m) {
		return "Sequence"
	}

	return "Sequence<" + m.inner.DebugString(extendCycle(inCycle, m)) + ">"
}

func (m *repeatedMutator) FixedSize() bool { return false }

func (m *repeatedMutator) SharesState() bool { return true }
