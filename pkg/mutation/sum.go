package mutation

import (
	"strings"
)

// sumMutator combines child mutators into a tagged variant. Values are
// [Tagged] holding the active member index and its value.
type sumMutator struct {
	name     string
	children []Mutator
}

// NewSum builds a mutator over a tagged variant of the given members.
// name labels the variant in debug output; it may be empty.
//
// A variant with a single member whose domain has one value cannot be
// mutated; callers must not build one (see ErrSingletonRange).
func NewSum(name string, members ...Mutator) Mutator {
	if len(members) == 0 {
		panic("mutation: sum needs at least one member")
	}

	return &sumMutator{name: name, children: members}
}

func (m *sumMutator) Init(prng PseudoRandom) any {
	t := prng.IndexIn(len(m.children))

	return Tagged{Tag: t, Value: m.children[t].Init(prng)}
}

// Mutate switches to another member with probability 1/(k+1), initializing
// the new inner value; otherwise it mutates the current inner value.
// Constant members (fixed values) force a tag switch since their inner
// value cannot change.
func (m *sumMutator) Mutate(value any, prng PseudoRandom) any {
	v := value.(Tagged)
	k := len(m.children)

	switchTag := k > 1 && (prng.TrueInOneOutOf(k+1) || isConstant(m.children[v.Tag]))
	if !switchTag {
		return Tagged{Tag: v.Tag, Value: m.children[v.Tag].Mutate(v.Value, prng)}
	}

	// Uniform among the other tags.
	t := prng.IndexIn(k - 1)
	if t >= v.Tag {
		t++
	}

	return Tagged{Tag: t, Value: m.children[t].Init(prng)}
}

func (m *sumMutator) Read(in *Reader) any {
	t := int(in.Byte()) % len(m.children)

	return Tagged{Tag: t, Value: m.children[t].Read(in)}
}

func (m *sumMutator) Write(value any, out *Writer) {
	v := value.(Tagged)
	out.Byte(byte(v.Tag))
	m.children[v.Tag].Write(v.Value, out)
}

func (m *sumMutator) Detach(value any) any {
	v := value.(Tagged)

	return Tagged{Tag: v.Tag, Value: m.children[v.Tag].Detach(v.Value)}
}

func (m *sumMutator) DebugString(inCycle func(Mutator) bool) string {
	if inCycleCheck(inCycle, m) {
		if m.name != "" {
			return m.name
		}

		return "(...|...)"
	}

	pred := extendCycle(inCycle, m)

	parts := make([]string, len(m.children))
	for i, c := range m.children {
		parts[i] = c.DebugString(pred)
	}

	label := ""
	if m.name != "" {
		label = m.name + " "
	}

	return label + "(" + strings.Join(parts, " | ") + ")"
}

func (m *sumMutator) FixedSize() bool {
	// Members frame at differing widths, so the encoded size depends on
	// the active tag.
	return false
}

func (m *sumMutator) SharesState() bool { return true }

// isConstant reports whether m is a fixed-value mutator whose domain has a
// single element.
func isConstant(m Mutator) bool {
	_, ok := m.(*fixedMutator)

	return ok
}
