package mutation

import (
	"fmt"
	"strings"
)

// Kind is the base kind of a [TypeRef].
type Kind int

// Base kinds.
const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBytes
	KindString
	KindRecord
	KindVariant
	KindSequence
	KindOptional
)

// String returns the kind name used in debug output and error paths.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindBytes:
		return "Bytes"
	case KindString:
		return "String"
	case KindRecord:
		return "Record"
	case KindVariant:
		return "Variant"
	case KindSequence:
		return "Sequence"
	case KindOptional:
		return "Optional"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Annotation is opaque per-type metadata attached to a [TypeRef].
//
// Annotation keys are unique per type: attaching two annotations with the
// same key is a construction error. Annotations not recognized by a factory
// are ignored by it but preserved for inner factories.
type Annotation interface {
	// AnnotationKey identifies the annotation kind. Keys are unique within
	// one TypeRef's annotation set.
	AnnotationKey() string
}

// Range narrows the bounds of an integral type. Both sides are optional;
// an absent side falls back to the natural limit of the annotated type.
type Range struct {
	Min *int64
	Max *int64
}

// AnnotationKey implements [Annotation].
func (Range) AnnotationKey() string { return "range" }

// NotNull forces an optional type to always be present.
type NotNull struct{}

// AnnotationKey implements [Annotation].
func (NotNull) AnnotationKey() string { return "not_null" }

// SizeRange bounds the length of a byte string or sequence.
type SizeRange struct {
	Min int
	Max int
}

// AnnotationKey implements [Annotation].
func (SizeRange) AnnotationKey() string { return "size_range" }

// UTF8Length bounds the rune count of a string.
type UTF8Length struct {
	Min int
	Max int
}

// AnnotationKey implements [Annotation].
func (UTF8Length) AnnotationKey() string { return "utf8_length" }

// TypeRef is a language-neutral description of a typed target: a base kind
// plus an annotation set.
//
// TypeRefs form a graph, not a tree: a record's element may point back at
// the record itself, describing a recursive shape. Identity for recursion
// detection is pointer identity, falling back to name equality for named
// records and variants.
type TypeRef struct {
	Kind Kind

	// Name identifies records and variants. Required for recursive shapes
	// referenced by name; optional otherwise.
	Name string

	// Elems are the element types: fields of a record, members of a
	// variant, the single element of a sequence or optional.
	Elems []*TypeRef

	// FieldNames name record fields and variant members, parallel to
	// Elems. May be empty, in which case positional names are used in
	// error paths.
	FieldNames []string

	// Annotations is the annotation set. Keys must be unique.
	Annotations []Annotation
}

// LookupAnnotation returns the annotation of concrete type A, if present.
func LookupAnnotation[A Annotation](t *TypeRef) (A, bool) {
	for _, a := range t.Annotations {
		if v, ok := a.(A); ok {
			return v, true
		}
	}

	var zero A

	return zero, false
}

// validateAnnotations checks key uniqueness.
func (t *TypeRef) validateAnnotations() error {
	seen := make(map[string]bool, len(t.Annotations))

	for _, a := range t.Annotations {
		key := a.AnnotationKey()
		if seen[key] {
			return fmt.Errorf("mutation: duplicate annotation %q on %s", key, t.Kind)
		}

		seen[key] = true
	}

	return nil
}

// FieldName returns the name of element i, falling back to a positional
// name when FieldNames is absent.
func (t *TypeRef) FieldName(i int) string {
	if i < len(t.FieldNames) {
		return t.FieldNames[i]
	}

	return fmt.Sprintf("_%d", i)
}

// String returns a short description used in error messages. Recursive
// references print as their name only.
func (t *TypeRef) String() string {
	if t == nil {
		return "<nil>"
	}

	if t.Name != "" {
		return t.Name
	}

	switch t.Kind {
	case KindSequence, KindOptional:
		if len(t.Elems) == 1 {
			return t.Kind.String() + "<" + t.Elems[0].shortString() + ">"
		}
	case KindRecord, KindVariant:
		names := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			names[i] = e.shortString()
		}

		return t.Kind.String() + "{" + strings.Join(names, ", ") + "}"
	}

	return t.Kind.String()
}

// shortString avoids unbounded expansion of nested composites.
func (t *TypeRef) shortString() string {
	if t.Name != "" {
		return t.Name
	}

	return t.Kind.String()
}

// Convenience constructors for leaf and composite TypeRefs.

// BoolRef describes a boolean.
func BoolRef() *TypeRef { return &TypeRef{Kind: KindBool} }

// Int8Ref describes an 8-bit signed integral.
func Int8Ref(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindInt8, Annotations: annotations}
}

// Int16Ref describes a 16-bit signed integral.
func Int16Ref(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindInt16, Annotations: annotations}
}

// Int32Ref describes a 32-bit signed integral.
func Int32Ref(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindInt32, Annotations: annotations}
}

// Int64Ref describes a 64-bit signed integral.
func Int64Ref(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindInt64, Annotations: annotations}
}

// Float32Ref describes a 32-bit IEEE-754 float.
func Float32Ref() *TypeRef { return &TypeRef{Kind: KindFloat32} }

// Float64Ref describes a 64-bit IEEE-754 float.
func Float64Ref() *TypeRef { return &TypeRef{Kind: KindFloat64} }

// BytesRef describes a byte string.
func BytesRef(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindBytes, Annotations: annotations}
}

// StringRef describes a UTF-8 string.
func StringRef(annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindString, Annotations: annotations}
}

// RecordRef describes a fixed-arity record. names and elems are parallel.
func RecordRef(name string, names []string, elems []*TypeRef, annotations ...Annotation) *TypeRef {
	return &TypeRef{
		Kind:        KindRecord,
		Name:        name,
		Elems:       elems,
		FieldNames:  names,
		Annotations: annotations,
	}
}

// VariantRef describes a tagged variant. names and members are parallel.
func VariantRef(name string, names []string, members []*TypeRef, annotations ...Annotation) *TypeRef {
	return &TypeRef{
		Kind:        KindVariant,
		Name:        name,
		Elems:       members,
		FieldNames:  names,
		Annotations: annotations,
	}
}

// SequenceRef describes a variable-length homogeneous sequence.
func SequenceRef(elem *TypeRef, annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindSequence, Elems: []*TypeRef{elem}, Annotations: annotations}
}

// OptionalRef describes an optional value.
func OptionalRef(inner *TypeRef, annotations ...Annotation) *TypeRef {
	return &TypeRef{Kind: KindOptional, Elems: []*TypeRef{inner}, Annotations: annotations}
}
