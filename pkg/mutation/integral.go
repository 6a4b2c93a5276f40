package mutation

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
)

// randomWalkRange is the +/- radius of the random-walk mutation.
const randomWalkRange = 5

// integralMutator mutates signed integers bounded to [minValue, maxValue].
// Values are represented as int64 regardless of the declared width; the
// width determines the natural limits and the wire framing.
type integralMutator struct {
	kind  Kind
	width int // bytes on the wire: 1, 2, 4 or 8

	minValue int64
	maxValue int64

	// Bit width of the largest in-range magnitude on each side of zero.
	// Bit flips select an index below the bound matching the current sign.
	largestMutableBitNegative int
	largestMutableBitPositive int

	// Sorted, deduplicated intersection of {0, 1, min, max} with the range.
	specialValues []int64
}

// integral natural limits per kind.
func integralLimits(kind Kind) (lo, hi int64, width int) {
	switch kind {
	case KindInt8:
		return math.MinInt8, math.MaxInt8, 1
	case KindInt16:
		return math.MinInt16, math.MaxInt16, 2
	case KindInt32:
		return math.MinInt32, math.MaxInt32, 4
	case KindInt64:
		return math.MinInt64, math.MaxInt64, 8
	default:
		panic(fmt.Sprintf("mutation: %s is not an integral kind", kind))
	}
}

func newIntegralMutator(ref *TypeRef) (*integralMutator, error) {
	defaultMin, defaultMax, width := integralLimits(ref.Kind)

	minValue, maxValue := defaultMin, defaultMax

	if rng, ok := LookupAnnotation[Range](ref); ok {
		if rng.Min != nil {
			if *rng.Min < defaultMin {
				return nil, fmt.Errorf("%w: min=%d is below %s minimum %d",
					ErrInvalidRange, *rng.Min, ref.Kind, defaultMin)
			}

			minValue = *rng.Min
		}

		if rng.Max != nil {
			if *rng.Max > defaultMax {
				return nil, fmt.Errorf("%w: max=%d is above %s maximum %d",
					ErrInvalidRange, *rng.Max, ref.Kind, defaultMax)
			}

			maxValue = *rng.Max
		}
	}

	if minValue > maxValue {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, minValue, maxValue)
	}

	if minValue == maxValue {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrSingletonRange, minValue, maxValue)
	}

	m := &integralMutator{
		kind:     ref.Kind,
		width:    width,
		minValue: minValue,
		maxValue: maxValue,
	}

	switch {
	case minValue >= 0:
		m.largestMutableBitNegative = 0
		m.largestMutableBitPositive = bitWidth(minValue ^ maxValue)
	case maxValue < 0:
		m.largestMutableBitNegative = bitWidth(minValue ^ maxValue)
		m.largestMutableBitPositive = 0
	default: // minValue < 0 && maxValue >= 0
		m.largestMutableBitNegative = bitWidth(^minValue)
		m.largestMutableBitPositive = bitWidth(maxValue)
	}

	m.specialValues = collectSpecialValues(minValue, maxValue)

	return m, nil
}

// collectSpecialValues filters {0, 1, min, max} to the range and removes
// duplicates so no special value is weighted above the others.
func collectSpecialValues(minValue, maxValue int64) []int64 {
	candidates := []int64{0, 1, minValue, maxValue}

	special := make([]int64, 0, len(candidates))
	for _, v := range candidates {
		if v >= minValue && v <= maxValue {
			special = append(special, v)
		}
	}

	slices.Sort(special)

	return slices.Compact(special)
}

func bitWidth(v int64) int {
	return 64 - bits.LeadingZeros64(uint64(v))
}

func (m *integralMutator) Init(prng PseudoRandom) any {
	sentinel := len(m.specialValues)

	choice := prng.ClosedRange(0, int64(sentinel))
	if choice < int64(sentinel) {
		return m.specialValues[choice]
	}

	return prng.ClosedRange(m.minValue, m.maxValue)
}

func (m *integralMutator) Mutate(value any, prng PseudoRandom) any {
	previous := value.(int64)

	// Mutate in a loop to verify that we really mutated.
	v := previous
	for v == previous {
		switch {
		case prng.TrueInOneOutOf(4):
			v = m.bitFlip(v, prng)
		case prng.Choice():
			v = m.randomWalk(v, prng)
		default:
			v = prng.ClosedRange(m.minValue, m.maxValue)
		}
	}

	return v
}

func (m *integralMutator) bitFlip(value int64, prng PseudoRandom) int64 {
	rng := m.largestMutableBitPositive
	if value < 0 {
		rng = m.largestMutableBitNegative
	}

	// A range like [-5, 0] has no mutable bit on the non-negative side.
	if rng == 0 {
		return prng.ClosedRange(m.minValue, m.maxValue)
	}

	value ^= 1 << prng.IndexIn(rng)

	// The bit flip may violate the range constraint; if so, mutate randomly.
	if value > m.maxValue || value < m.minValue {
		value = prng.ClosedRange(m.minValue, m.maxValue)
	}

	return value
}

func (m *integralMutator) randomWalk(value int64, prng PseudoRandom) int64 {
	// Prevent overflows by averaging the individual bounds.
	if m.maxValue/2-m.minValue/2 <= randomWalkRange {
		return prng.ClosedRange(m.minValue, m.maxValue)
	}

	// maxValue/2 - minValue/2 > randomWalkRange, so neither
	// minValue + randomWalkRange nor maxValue - randomWalkRange can wrap.
	lower := m.minValue
	if value > lower+randomWalkRange {
		lower = value - randomWalkRange
	}

	upper := m.maxValue
	if value < upper-randomWalkRange {
		upper = value + randomWalkRange
	}

	return prng.ClosedRange(lower, upper)
}

func (m *integralMutator) Read(in *Reader) any {
	var raw int64

	switch m.width {
	case 1:
		raw = int64(int8(in.Byte()))
	case 2:
		raw = int64(int16(in.Uint16()))
	case 4:
		raw = int64(int32(in.Uint32()))
	default:
		raw = int64(in.Uint64())
	}

	// In-range values are returned as they are; forceInRange alone would
	// fold maxValue onto minValue.
	if raw >= m.minValue && raw <= m.maxValue {
		return raw
	}

	return forceInRange(raw, m.minValue, m.maxValue)
}

// forceInRange folds value into the closed interval [minValue, maxValue]
// while preserving as many of its bits as possible, so that mutations
// applied to the raw byte representation still have a good chance to
// actually mutate the value. Clamping would not have this property.
func forceInRange(value, minValue, maxValue int64) int64 {
	rng := maxValue - minValue
	if rng > 0 {
		d := (value - minValue) % rng
		if d < 0 {
			d = -d
		}

		return minValue + d
	}

	// [minValue, maxValue] covers at least half of the signed 64-bit
	// domain, so a value outside it lands inside after shifting once.
	if value >= minValue && value <= maxValue {
		return value
	}

	return value + rng
}

func (m *integralMutator) Write(value any, out *Writer) {
	v := value.(int64)

	switch m.width {
	case 1:
		out.Byte(byte(v))
	case 2:
		out.Uint16(uint16(v))
	case 4:
		out.Uint32(uint32(v))
	default:
		out.Uint64(uint64(v))
	}
}

func (m *integralMutator) Detach(value any) any {
	// Always immutable.
	return value
}

func (m *integralMutator) DebugString(func(Mutator) bool) string {
	defaultMin, defaultMax, _ := integralLimits(m.kind)
	if m.minValue != defaultMin || m.maxValue != defaultMax {
		return fmt.Sprintf("%s[%d, %d]", m.kind, m.minValue, m.maxValue)
	}

	return m.kind.String()
}

func (m *integralMutator) FixedSize() bool { return true }

func (m *integralMutator) SharesState() bool { return false }
