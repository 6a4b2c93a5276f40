package mutation

import (
	"strings"
)

// productMutator combines a fixed arity of heterogeneous child mutators
// into a record. Values are []any slices in declaration order.
type productMutator struct {
	name     string
	children []Mutator
}

// NewProduct builds a mutator over a fixed-arity record of the given child
// mutators. name labels the record in debug output; it may be empty.
func NewProduct(name string, children ...Mutator) Mutator {
	if len(children) == 0 {
		panic("mutation: product needs at least one child")
	}

	return &productMutator{name: name, children: children}
}

func (m *productMutator) Init(prng PseudoRandom) any {
	vals := make([]any, len(m.children))
	for i, c := range m.children {
		vals[i] = c.Init(prng)
	}

	return vals
}

// Mutate mutates exactly one field, chosen uniformly, leaving the others
// untouched. The child contract guarantees the field changed, so the record
// changed.
func (m *productMutator) Mutate(value any, prng PseudoRandom) any {
	previous := value.([]any)

	vals := make([]any, len(previous))
	copy(vals, previous)

	i := prng.IndexIn(len(m.children))
	vals[i] = m.children[i].Mutate(vals[i], prng)

	return vals
}

func (m *productMutator) Read(in *Reader) any {
	vals := make([]any, len(m.children))
	for i, c := range m.children {
		vals[i] = c.Read(in)
	}

	return vals
}

func (m *productMutator) Write(value any, out *Writer) {
	vals := value.([]any)
	for i, c := range m.children {
		c.Write(vals[i], out)
	}
}

func (m *productMutator) Detach(value any) any {
	vals := value.([]any)

	out := make([]any, len(vals))
	for i, c := range m.children {
		out[i] = c.Detach(vals[i])
	}

	return out
}

func (m *productMutator) DebugString(inCycle func(Mutator) bool) string {
	if inCycleCheck(inCycle, m) {
		if m.name != "" {
			return m.name
		}

		return "{...}"
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

	return label + "{" + strings.Join(parts, ", ") + "}"
}

func (m *productMutator) FixedSize() bool {
	for _, c := range m.children {
		if !c.FixedSize() {
			return false
		}
	}

	return true
}

func (m *productMutator) SharesState() bool { return true }
