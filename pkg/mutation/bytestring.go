package mutation

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// defaultMaxSize bounds byte strings and sequences that carry no explicit
// SizeRange annotation.
const defaultMaxSize = 1000

// sizeBounds resolves a SizeRange annotation against defaults.
func sizeBounds(ref *TypeRef) (minSize, maxSize int, err error) {
	minSize, maxSize = 0, defaultMaxSize

	if sr, ok := LookupAnnotation[SizeRange](ref); ok {
		if sr.Min < 0 || sr.Max < sr.Min {
			return 0, 0, fmt.Errorf("%w: [%d, %d]", ErrInvalidSize, sr.Min, sr.Max)
		}

		minSize, maxSize = sr.Min, sr.Max
	}

	return minSize, maxSize, nil
}

// byteStringMutator mutates []byte values with length in [minSize, maxSize].
type byteStringMutator struct {
	minSize int
	maxSize int
}

func newByteStringMutator(ref *TypeRef) (*byteStringMutator, error) {
	minSize, maxSize, err := sizeBounds(ref)
	if err != nil {
		return nil, err
	}

	if minSize == maxSize && maxSize == 0 {
		// Only the empty string is in the domain.
		return nil, fmt.Errorf("%w: size [0, 0]", ErrSingletonRange)
	}

	return &byteStringMutator{minSize: minSize, maxSize: maxSize}, nil
}

func (m *byteStringMutator) Init(prng PseudoRandom) any {
	n := int(prng.ClosedRange(int64(m.minSize), int64(m.maxSize)))

	return prng.Bytes(n)
}

// Mutation operators, chosen uniformly and retried until the value changes:
// insert random bytes, delete a span, overwrite a span, replace wholly.
// Every operator clamps to the size bounds.
func (m *byteStringMutator) Mutate(value any, prng PseudoRandom) any {
	previous := value.([]byte)

	v := previous
	for bytes.Equal(v, previous) {
		switch prng.IndexIn(4) {
		case 0:
			v = m.insert(previous, prng)
		case 1:
			v = m.deleteSpan(previous, prng)
		case 2:
			v = m.overwrite(previous, prng)
		default:
			v = m.Init(prng).([]byte)
		}
	}

	return v
}

func (m *byteStringMutator) insert(value []byte, prng PseudoRandom) []byte {
	room := m.maxSize - len(value)
	if room <= 0 {
		return value
	}

	n := 1 + prng.IndexIn(room)
	pos := prng.IndexIn(len(value) + 1)

	out := make([]byte, 0, len(value)+n)
	out = append(out, value[:pos]...)
	out = append(out, prng.Bytes(n)...)
	out = append(out, value[pos:]...)

	return out
}

func (m *byteStringMutator) deleteSpan(value []byte, prng PseudoRandom) []byte {
	slack := len(value) - m.minSize
	if slack <= 0 {
		return value
	}

	n := 1 + prng.IndexIn(slack)
	pos := prng.IndexIn(len(value) - n + 1)

	out := make([]byte, 0, len(value)-n)
	out = append(out, value[:pos]...)
	out = append(out, value[pos+n:]...)

	return out
}

func (m *byteStringMutator) overwrite(value []byte, prng PseudoRandom) []byte {
	if len(value) == 0 {
		return value
	}

	n := 1 + prng.IndexIn(len(value))
	pos := prng.IndexIn(len(value) - n + 1)

	out := bytes.Clone(value)
	copy(out[pos:pos+n], prng.Bytes(n))

	return out
}

func (m *byteStringMutator) Read(in *Reader) any {
	n := clampSize(in.Uvarint(), m.minSize, m.maxSize)

	return in.Bytes(n)
}

// clampSize folds a decoded length into [minSize, maxSize].
func clampSize(raw uint64, minSize, maxSize int) int {
	if raw < uint64(minSize) {
		return minSize
	}

	if raw > uint64(maxSize) {
		return maxSize
	}

	return int(raw)
}

func (m *byteStringMutator) Write(value any, out *Writer) {
	v := value.([]byte)
	out.Uvarint(uint64(len(v)))
	out.Write(v)
}

func (m *byteStringMutator) Detach(value any) any {
	return bytes.Clone(value.([]byte))
}

func (m *byteStringMutator) DebugString(func(Mutator) bool) string {
	return fmt.Sprintf("Bytes[%d, %d]", m.minSize, m.maxSize)
}

func (m *byteStringMutator) FixedSize() bool { return false }

func (m *byteStringMutator) SharesState() bool { return false }

// stringMutator layers UTF-8 repair and rune-count bounds over the byte
// string strategy. Strings are immutable, so Detach returns its input.
type stringMutator struct {
	inner    *byteStringMutator
	minRunes int
	maxRunes int
}

func newStringMutator(ref *TypeRef) (*stringMutator, error) {
	minRunes, maxRunes := 0, defaultMaxSize

	if ul, ok := LookupAnnotation[UTF8Length](ref); ok {
		if ul.Min < 0 || ul.Max < ul.Min {
			return nil, fmt.Errorf("%w: utf8 length [%d, %d]", ErrInvalidSize, ul.Min, ul.Max)
		}

		minRunes, maxRunes = ul.Min, ul.Max
	}

	if minRunes == maxRunes && maxRunes == 0 {
		return nil, fmt.Errorf("%w: utf8 length [0, 0]", ErrSingletonRange)
	}

	// A rune occupies up to four bytes; give the byte layer enough room.
	inner := &byteStringMutator{minSize: minRunes, maxSize: 4 * maxRunes}

	return &stringMutator{inner: inner, minRunes: minRunes, maxRunes: maxRunes}, nil
}

func (m *stringMutator) Init(prng PseudoRandom) any {
	return m.repair(m.inner.Init(prng).([]byte), prng)
}

func (m *stringMutator) Mutate(value any, prng PseudoRandom) any {
	previous := value.(string)

	v := previous
	for v == previous {
		v = m.repair(m.inner.Mutate([]byte(previous), prng).([]byte), prng)
	}

	return v
}

func (m *stringMutator) Read(in *Reader) any {
	// Unused PRNG draws must not occur on the decode path; repair
	// deterministically.
	return m.repairDeterministic(m.inner.Read(in).([]byte))
}

func (m *stringMutator) Write(value any, out *Writer) {
	m.inner.Write([]byte(value.(string)), out)
}

// repair produces a valid UTF-8 string within the rune bounds, padding
// short values with random ASCII.
func (m *stringMutator) repair(b []byte, prng PseudoRandom) string {
	s := strings.ToValidUTF8(string(b), "�")

	for utf8.RuneCountInString(s) < m.minRunes {
		s += string(rune('a' + prng.IndexIn(26)))
	}

	return m.repairDeterministic([]byte(s))
}

// repairDeterministic replaces invalid sequences and truncates to the rune
// bound, without consuming randomness.
func (m *stringMutator) repairDeterministic(b []byte) string {
	s := strings.ToValidUTF8(string(b), "�")

	if utf8.RuneCountInString(s) > m.maxRunes {
		runes := []rune(s)
		s = string(runes[:m.maxRunes])
	}

	for utf8.RuneCountInString(s) < m.minRunes {
		s += "a"
	}

	return s
}

func (m *stringMutator) Detach(value any) any { return value }

func (m *stringMutator) DebugString(func(Mutator) bool) string {
	return fmt.Sprintf("String[%d, %d]", m.minRunes, m.maxRunes)
}

func (m *stringMutator) FixedSize() bool { return false }

func (m *stringMutator) SharesState() bool { return false }
