package mutation

import "errors"

// Sentinel errors returned during mutator construction.
//
// Callers should use [errors.Is] to check error types. Construction errors
// are wrapped with the full type path of the offending child, e.g.
//
//	Root.field_a.element[*]: mutation: no factory matched
var (
	// ErrInvalidRange indicates a Range annotation with min > max, or with a
	// bound outside the natural limits of the annotated integral type.
	ErrInvalidRange = errors.New("mutation: invalid range")

	// ErrSingletonRange indicates a range that admits exactly one value.
	// Such a domain cannot be mutated; use [NewFixedValue] instead.
	ErrSingletonRange = errors.New("mutation: range admits a single value, use a fixed value instead")

	// ErrInvalidSize indicates a SizeRange or UTF8Length annotation with
	// negative or inverted bounds.
	ErrInvalidSize = errors.New("mutation: invalid size bounds")

	// ErrNoFactory indicates that no factory in the chain matched a type.
	ErrNoFactory = errors.New("mutation: no factory matched")

	// ErrNoChildren indicates a record, variant or sequence type with no
	// element types.
	ErrNoChildren = errors.New("mutation: composite type has no element types")

	// ErrAlreadyResolved indicates that a delayed mutator was resolved twice.
	//
	// This is a programming error in a custom factory.
	ErrAlreadyResolved = errors.New("mutation: delayed mutator already resolved")
)
