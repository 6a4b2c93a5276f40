// Package mutatortest provides deterministic test doubles for driving
// mutators.
//
// ScriptRand replays a scripted sequence of draws so tests can force a
// mutator down one exact decision path. Tests fail loudly (panic) when the
// script and the mutator's draw sequence disagree, since that means the
// test no longer matches the implementation.
package mutatortest

import "fmt"

// ScriptRand is a mutation.PseudoRandom whose draws are scripted.
//
// Each sampling call pops the next scripted value and returns it after a
// type check:
//
//	ClosedRange     int64 (must lie in [lo, hi])
//	IndexIn         int   (must lie in [0, n))
//	Choice          bool
//	TrueInOneOutOf  bool
//	Fill / Bytes    []byte (must have the requested length)
type ScriptRand struct {
	script []any
	pos    int
}

// NewScript creates a ScriptRand replaying the given values in order.
func NewScript(values ...any) *ScriptRand {
	return &ScriptRand{script: values}
}

// Exhausted reports whether every scripted value has been consumed. Tests
// typically assert this at the end to catch over-long scripts.
func (s *ScriptRand) Exhausted() bool {
	return s.pos >= len(s.script)
}

func (s *ScriptRand) next(method string) any {
	if s.pos >= len(s.script) {
		panic(fmt.Sprintf("mutatortest: script exhausted at call %d (%s)", s.pos, method))
	}

	v := s.script[s.pos]
	s.pos++

	return v
}

// ClosedRange pops an int64 and checks it lies in [lo, hi].
func (s *ScriptRand) ClosedRange(lo, hi int64) int64 {
	v, ok := s.next("ClosedRange").(int64)
	if !ok {
		panic(fmt.Sprintf("mutatortest: scripted value %d is not an int64", s.pos-1))
	}

	if v < lo || v > hi {
		panic(fmt.Sprintf("mutatortest: scripted %d outside requested [%d, %d]", v, lo, hi))
	}

	return v
}

// IndexIn pops an int and checks it lies in [0, n).
func (s *ScriptRand) IndexIn(n int) int {
	v, ok := s.next("IndexIn").(int)
	if !ok {
		panic(fmt.Sprintf("mutatortest: scripted value %d is not an int", s.pos-1))
	}

	if v < 0 || v >= n {
		panic(fmt.Sprintf("mutatortest: scripted %d outside requested [0, %d)", v, n))
	}

	return v
}

// Choice pops a bool.
func (s *ScriptRand) Choice() bool {
	v, ok := s.next("Choice").(bool)
	if !ok {
		panic(fmt.Sprintf("mutatortest: scripted value %d is not a bool", s.pos-1))
	}

	return v
}

// TrueInOneOutOf pops a bool.
func (s *ScriptRand) TrueInOneOutOf(n int) bool {
	if n < 1 {
		panic(fmt.Sprintf("mutatortest: TrueInOneOutOf(%d), need n >= 1", n))
	}

	v, ok := s.next("TrueInOneOutOf").(bool)
	if !ok {
		panic(fmt.Sprintf("mutatortest: scripted value %d is not a bool", s.pos-1))
	}

	return v
}

// Fill pops a []byte of the requested length and copies it into p.
func (s *ScriptRand) Fill(p []byte) {
	v, ok := s.next("Fill").([]byte)
	if !ok {
		panic(fmt.Sprintf("mutatortest: scripted value %d is not a []byte", s.pos-1))
	}

	if len(v) != len(p) {
		panic(fmt.Sprintf("mutatortest: scripted %d bytes, requested %d", len(v), len(p)))
	}

	copy(p, v)
}

// Bytes pops a []byte of the requested length.
func (s *ScriptRand) Bytes(n int) []byte {
	p := make([]byte, n)
	s.Fill(p)

	return p
}
