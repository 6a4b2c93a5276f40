package mutation

import (
	"errors"
	"fmt"
	"strings"
)

// Factory is a partial mutator constructor. Implementations return
// (nil, nil) when the type is not theirs, a mutator on success, or an error
// when the type is theirs but invalid (bad annotations, unbuildable child).
//
// Factories building composite mutators recurse through
// [Engine.CreateChild] so that the whole chain, including custom factories,
// applies to child types.
type Factory interface {
	TryCreate(ref *TypeRef, eng *Engine) (Mutator, error)
}

// Engine composes factories in priority order and builds mutators from
// TypeRefs. The first factory returning a mutator wins.
//
// The engine detects recursive shapes during construction: when a child
// TypeRef matches an ancestor already under construction, the child is
// substituted with a delayed placeholder that is patched to the ancestor's
// mutator once it completes.
//
// An Engine is not safe for concurrent use during construction.
type Engine struct {
	factories []Factory
	path      []string
	stack     []*constructionFrame
}

type constructionFrame struct {
	ref          *TypeRef
	placeholders []*delayedMutator
}

// NewEngine returns an engine with the default factory chain: integrals,
// booleans, floats, byte strings, strings, records, variants, sequences and
// optionals. Custom factories run before the defaults, in the given order.
func NewEngine(custom ...Factory) *Engine {
	factories := make([]Factory, 0, len(custom)+9)
	factories = append(factories, custom...)
	factories = append(factories,
		integralFactory{},
		boolFactory{},
		floatFactory{},
		bytesFactory{},
		stringFactory{},
		recordFactory{},
		variantFactory{},
		sequenceFactory{},
		optionalFactory{},
	)

	return &Engine{factories: factories}
}

// Create builds the root mutator for ref. The returned error, if any,
// carries the full path of the offending child type.
func (e *Engine) Create(ref *TypeRef) (Mutator, error) {
	e.path = e.path[:0]
	e.stack = e.stack[:0]

	return e.createAt("Root", ref)
}

// CreateChild builds a mutator for a child type. Factories call this when
// recursing; name labels the child in error paths (e.g. "field_a",
// "element[*]", "oneof:x").
func (e *Engine) CreateChild(name string, ref *TypeRef) (Mutator, error) {
	return e.createAt(name, ref)
}

func (e *Engine) createAt(name string, ref *TypeRef) (Mutator, error) {
	e.path = append(e.path, name)
	defer func() { e.path = e.path[:len(e.path)-1] }()

	if ref == nil {
		return nil, e.fail(fmt.Errorf("mutation: nil type"))
	}

	if err := ref.validateAnnotations(); err != nil {
		return nil, e.fail(err)
	}

	// Recursion detection: a type already under construction higher up the
	// stack gets a placeholder instead of another construction cycle.
	if frame := e.matchAncestor(ref); frame != nil {
		placeholder := NewDelayed(ref.shortString())
		frame.placeholders = append(frame.placeholders, placeholder)

		return placeholder, nil
	}

	frame := e.pushFrame(ref)

	m, err := e.dispatch(ref)

	if frame != nil {
		e.popFrame()
	}

	if err != nil {
		return nil, e.fail(err)
	}

	if frame != nil {
		for _, placeholder := range frame.placeholders {
			if resolveErr := placeholder.Resolve(m); resolveErr != nil {
				return nil, e.fail(resolveErr)
			}
		}
	}

	return m, nil
}

func (e *Engine) dispatch(ref *TypeRef) (Mutator, error) {
	for _, f := range e.factories {
		m, err := f.TryCreate(ref, e)
		if err != nil {
			return nil, err
		}

		if m != nil {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoFactory, ref)
}

// matchAncestor returns the construction frame of an ancestor this ref
// recurses into, if any. Identity is pointer equality, falling back to name
// equality for named records and variants.
func (e *Engine) matchAncestor(ref *TypeRef) *constructionFrame {
	for _, frame := range e.stack {
		if frame.ref == ref {
			return frame
		}

		if ref.Name != "" && frame.ref.Kind == ref.Kind && frame.ref.Name == ref.Name {
			return frame
		}
	}

	return nil
}

// pushFrame records composite types on the construction stack. Leaves
// cannot recur, so they are not tracked.
func (e *Engine) pushFrame(ref *TypeRef) *constructionFrame {
	switch ref.Kind {
	case KindRecord, KindVariant, KindSequence, KindOptional:
		frame := &constructionFrame{ref: ref}
		e.stack = append(e.stack, frame)

		return frame
	default:
		return nil
	}
}

func (e *Engine) popFrame() {
	e.stack = e.stack[:len(e.stack)-1]
}

// fail wraps err with the current type path exactly once.
func (e *Engine) fail(err error) error {
	var pe *pathError
	if errors.As(err, &pe) {
		return err
	}

	return &pathError{path: strings.Join(e.path, "."), err: err}
}

// pathError carries the full type path of a construction failure, e.g.
// "Root.field_a.element[*].oneof:x: mutation: no factory matched".
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string {
	return e.path + ": " + e.err.Error()
}

func (e *pathError) Unwrap() error {
	return e.err
}
