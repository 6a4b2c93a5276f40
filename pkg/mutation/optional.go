package mutation

// optionalMutator adds a presence flag to an inner mutator. Values are
// [Option]. With notNull the value is always present and only the inner
// value mutates.
type optionalMutator struct {
	inner   Mutator
	notNull bool
}

// NewOptional builds a mutator over an optional value. With notNull the
// presence flag is pinned to true.
func NewOptional(inner Mutator, notNull bool) Mutator {
	return &optionalMutator{inner: inner, notNull: notNull}
}

func (m *optionalMutator) Init(prng PseudoRandom) any {
	if !m.notNull && !prng.Choice() {
		return Option{}
	}

	return Option{Present: true, Value: m.inner.Init(prng)}
}

// Mutate flips the presence flag or, when present, mutates the inner value.
// An absent value can only become present.
func (m *optionalMutator) Mutate(value any, prng PseudoRandom) any {
	v := value.(Option)

	if m.notNull {
		return Option{Present: true, Value: m.inner.Mutate(v.Value, prng)}
	}

	if !v.Present {
		return Option{Present: true, Value: m.inner.Init(prng)}
	}

	if prng.Choice() {
		return Option{}
	}

	return Option{Present: true, Value: m.inner.Mutate(v.Value, prng)}
}

func (m *optionalMutator) Read(in *Reader) any {
	present := in.Byte()&1 == 1 || m.notNull
	if !present {
		return Option{}
	}

	return Option{Present: true, Value: m.inner.Read(in)}
}

func (m *optionalMutator) Write(value any, out *Writer) {
	v := value.(Option)

	if v.Present {
		out.Byte(1)
		m.inner.Write(v.Value, out)
	} else {
		out.Byte(0)
	}
}

func (m *optionalMutator) Detach(value any) any {
	v := value.(Option)
	if !v.Present {
		return Option{}
	}

	return Option{Present: true, Value: m.inner.Detach(v.Value)}
}

func (m *optionalMutator) DebugString(inCycle func(Mutator) bool) string {
	if inCycleCheck(inCycle, m) {
		return "Optional"
	}

	return "Optional<" + m.inner.DebugString(extendCycle(inCycle, m)) + ">"
}

func (m *optionalMutator) FixedSize() bool {
	// Presence varies the framing; even with notNull the flag byte plus a
	// variable inner keeps this conservative.
	return m.notNull && m.inner.FixedSize()
}

func (m *optionalMutator) SharesState() bool { return true }
