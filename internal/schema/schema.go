// Package schema loads TypeRef trees from JWCC (JSON with commas and
// comments) schema files.
//
// A schema describes the typed shape a corpus mutates under:
//
//	{
//	    "kind": "record",
//	    "name": "Root",
//	    "fields": [
//	        {"name": "id", "type": {"kind": "int64", "range": {"min": 0, "max": 1000}}},
//	        {"name": "tags", "type": {"kind": "sequence", "size": {"min": 0, "max": 8},
//	            "elem": {"kind": "string", "utf8_length": {"min": 1, "max": 16}}}},
//	        // A field may refer back to an enclosing named record:
//	        {"name": "next", "type": {"kind": "optional",
//	            "elem": {"kind": "ref", "name": "Root"}}},
//	    ],
//	}
//
// Named records and variants register themselves before their children are
// built, so {"kind": "ref"} nodes may point at any enclosing type,
// producing the cyclic TypeRef graphs the engine breaks with delayed
// placeholders.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/GratitechInc/jazzer/pkg/mutation"
)

// Schema errors.
var (
	ErrUnknownKind   = errors.New("schema: unknown kind")
	ErrUnknownRef    = errors.New("schema: ref to unknown type")
	ErrDuplicateName = errors.New("schema: duplicate type name")
	ErrMissingElem   = errors.New("schema: missing elem")
	ErrNoFields      = errors.New("schema: record or variant without fields")
)

// Load reads and parses a schema file.
func Load(path string) (*mutation.TypeRef, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from caller
	if err != nil {
		return nil, fmt.Errorf("schema: reading %s: %w", path, err)
	}

	ref, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ref, nil
}

// Parse parses JWCC schema bytes.
func Parse(data []byte) (*mutation.TypeRef, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var root node
	if err := json.Unmarshal(std, &root); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	b := &builder{named: make(map[string]*mutation.TypeRef)}

	return b.build("$", &root)
}

type node struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`

	Fields  []fieldNode `json:"fields,omitempty"`
	Members []fieldNode `json:"members,omitempty"`
	Elem    *node       `json:"elem,omitempty"`

	Range      *rangeNode `json:"range,omitempty"`
	Size       *sizeNode  `json:"size,omitempty"`
	UTF8Length *sizeNode  `json:"utf8_length,omitempty"`
	NotNull    bool       `json:"not_null,omitempty"`
}

type fieldNode struct {
	Name string `json:"name"`
	Type *node  `json:"type"`
}

type rangeNode struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

type sizeNode struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type builder struct {
	named map[string]*mutation.TypeRef
}

func (b *builder) build(path string, n *node) (*mutation.TypeRef, error) {
	switch n.Kind {
	case "bool":
		return mutation.BoolRef(), nil

	case "int8", "int16", "int32", "int64":
		return integralRef(n), nil

	case "float32":
		return mutation.Float32Ref(), nil

	case "float64":
		return mutation.Float64Ref(), nil

	case "bytes":
		var annotations []mutation.Annotation
		if n.Size != nil {
			annotations = append(annotations, mutation.SizeRange{Min: n.Size.Min, Max: n.Size.Max})
		}

		return mutation.BytesRef(annotations...), nil

	case "string":
		var annotations []mutation.Annotation
		if n.UTF8Length != nil {
			annotations = append(annotations, mutation.UTF8Length{Min: n.UTF8Length.Min, Max: n.UTF8Length.Max})
		}

		return mutation.StringRef(annotations...), nil

	case "record":
		return b.composite(path, n, n.Fields, mutation.KindRecord)

	case "variant":
		return b.composite(path, n, n.Members, mutation.KindVariant)

	case "sequence":
		if n.Elem == nil {
			return nil, fmt.Errorf("%w at %s", ErrMissingElem, path)
		}

		elem, err := b.build(path+".elem", n.Elem)
		if err != nil {
			return nil, err
		}

		var annotations []mutation.Annotation
		if n.Size != nil {
			annotations = append(annotations, mutation.SizeRange{Min: n.Size.Min, Max: n.Size.Max})
		}

		return mutation.SequenceRef(elem, annotations...), nil

	case "optional":
		if n.Elem == nil {
			return nil, fmt.Errorf("%w at %s", ErrMissingElem, path)
		}

		elem, err := b.build(path+".elem", n.Elem)
		if err != nil {
			return nil, err
		}

		var annotations []mutation.Annotation
		if n.NotNull {
			annotations = append(annotations, mutation.NotNull{})
		}

		return mutation.OptionalRef(elem, annotations...), nil

	case "ref":
		target, ok := b.named[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRef, n.Name, path)
		}

		return target, nil

	default:
		return nil, fmt.Errorf("%w: %q at %s", ErrUnknownKind, n.Kind, path)
	}
}

// composite builds a record or variant, registering its name before the
// children so that ref nodes can close cycles.
func (b *builder) composite(path string, n *node, fields []fieldNode, kind mutation.Kind) (*mutation.TypeRef, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoFields, path)
	}

	ref := &mutation.TypeRef{Kind: kind, Name: n.Name}

	if n.Name != "" {
		if _, exists := b.named[n.Name]; exists {
			return nil, fmt.Errorf("%w: %q at %s", ErrDuplicateName, n.Name, path)
		}

		b.named[n.Name] = ref
	}

	for _, f := range fields {
		if f.Type == nil {
			return nil, fmt.Errorf("%w at %s.%s", ErrMissingElem, path, f.Name)
		}

		child, err := b.build(path+"."+f.Name, f.Type)
		if err != nil {
			return nil, err
		}

		ref.FieldNames = append(ref.FieldNames, f.Name)
		ref.Elems = append(ref.Elems, child)
	}

	return ref, nil
}

func integralRef(n *node) *mutation.TypeRef {
	var annotations []mutation.Annotation
	if n.Range != nil {
		annotations = append(annotations, mutation.Range{Min: n.Range.Min, Max: n.Range.Max})
	}

	switch n.Kind {
	case "int8":
		return mutation.Int8Ref(annotations...)
	case "int16":
		return mutation.Int16Ref(annotations...)
	case "int32":
		return mutation.Int32Ref(annotations...)
	default:
		return mutation.Int64Ref(annotations...)
	}
}
