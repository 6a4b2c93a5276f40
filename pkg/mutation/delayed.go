package mutation

// delayedMutator is a placeholder that breaks construction-time recursion.
//
// When the factory chain meets a type that is already under construction
// higher up the stack, it hands out a delayed mutator instead of recursing.
// Once the ancestor mutator is fully built, the placeholder is resolved to
// it and all operations delegate. Using a placeholder before resolution is
// an engine bug.
type delayedMutator struct {
	name string
	slot Mutator
}

// NewDelayed creates an unresolved placeholder. name is the declared name
// of the recursive type, used in debug output.
func NewDelayed(name string) *delayedMutator {
	return &delayedMutator{name: name}
}

// Resolve fills the placeholder's slot. Resolving twice is an error.
func (m *delayedMutator) Resolve(target Mutator) error {
	if m.slot != nil {
		return ErrAlreadyResolved
	}

	m.slot = target

	return nil
}

func (m *delayedMutator) resolved() Mutator {
	if m.slot == nil {
		panic("mutation: delayed mutator used before resolution: " + m.name)
	}

	return m.slot
}

func (m *delayedMutator) Init(prng PseudoRandom) any {
	return m.resolved().Init(prng)
}

func (m *delayedMutator) Mutate(value any, prng PseudoRandom) any {
	return m.resolved().Mutate(value, prng)
}

func (m *delayedMutator) Read(in *Reader) any {
	return m.resolved().Read(in)
}

func (m *delayedMutator) Write(value any, out *Writer) {
	m.resolved().Write(value, out)
}

func (m *delayedMutator) Detach(value any) any {
	return m.resolved().Detach(value)
}

func (m *delayedMutator) DebugString(inCycle func(Mutator) bool) string {
	if m.slot == nil || inCycleCheck(inCycle, m) || inCycleCheck(inCycle, m.slot) {
		return m.name
	}

	return m.slot.DebugString(extendCycle(inCycle, m))
}

// FixedSize is conservatively false: delegating would recurse through the
// cycle this placeholder exists to break.
func (m *delayedMutator) FixedSize() bool { return false }

func (m *delayedMutator) SharesState() bool { return true }
