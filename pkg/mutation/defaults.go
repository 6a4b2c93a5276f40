package mutation

// The default factory chain. Each factory claims one family of kinds and
// returns (nil, nil) for everything else.

type integralFactory struct{}

func (integralFactory) TryCreate(ref *TypeRef, _ *Engine) (Mutator, error) {
	switch ref.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return newIntegralMutator(ref)
	default:
		return nil, nil
	}
}

type boolFactory struct{}

func (boolFactory) TryCreate(ref *TypeRef, _ *Engine) (Mutator, error) {
	if ref.Kind != KindBool {
		return nil, nil
	}

	return boolMutator{}, nil
}

type floatFactory struct{}

func (floatFactory) TryCreate(ref *TypeRef, _ *Engine) (Mutator, error) {
	switch ref.Kind {
	case KindFloat32:
		return newFloat32Mutator(), nil
	case KindFloat64:
		return newFloat64Mutator(), nil
	default:
		return nil, nil
	}
}

type bytesFactory struct{}

func (bytesFactory) TryCreate(ref *TypeRef, _ *Engine) (Mutator, error) {
	if ref.Kind != KindBytes {
		return nil, nil
	}

	return newByteStringMutator(ref)
}

type stringFactory struct{}

func (stringFactory) TryCreate(ref *TypeRef, _ *Engine) (Mutator, error) {
	if ref.Kind != KindString {
		return nil, nil
	}

	return newStringMutator(ref)
}

type recordFactory struct{}

func (recordFactory) TryCreate(ref *TypeRef, eng *Engine) (Mutator, error) {
	if ref.Kind != KindRecord {
		return nil, nil
	}

	if len(ref.Elems) == 0 {
		return nil, ErrNoChildren
	}

	children := make([]Mutator, len(ref.Elems))

	for i, elem := range ref.Elems {
		child, err := eng.CreateChild(ref.FieldName(i), elem)
		if err != nil {
			return nil, err
		}

		children[i] = child
	}

	return NewProduct(ref.Name, children...), nil
}

type variantFactory struct{}

func (variantFactory) TryCreate(ref *TypeRef, eng *Engine) (Mutator, error) {
	if ref.Kind != KindVariant {
		return nil, nil
	}

	if len(ref.Elems) == 0 {
		return nil, ErrNoChildren
	}

	members := make([]Mutator, len(ref.Elems))

	for i, elem := range ref.Elems {
		member, err := eng.CreateChild("oneof:"+ref.FieldName(i), elem)
		if err != nil {
			return nil, err
		}

		members[i] = member
	}

	return NewSum(ref.Name, members...), nil
}

type sequenceFactory struct{}

func (sequenceFactory) TryCreate(ref *TypeRef, eng *Engine) (Mutator, error) {
	if ref.Kind != KindSequence {
		return nil, nil
	}

	if len(ref.Elems) != 1 {
		return nil, ErrNoChildren
	}

	minSize, maxSize, err := sizeBounds(ref)
	if err != nil {
		return nil, err
	}

	inner, err := eng.CreateChild("element[*]", ref.Elems[0])
	if err != nil {
		return nil, err
	}

	return NewRepeated(inner, minSize, maxSize)
}

type optionalFactory struct{}

func (optionalFactory) TryCreate(ref *TypeRef, eng *Engine) (Mutator, error) {
	if ref.Kind != KindOptional {
		return nil, nil
	}

	if len(ref.Elems) != 1 {
		return nil, ErrNoChildren
	}

	inner, err := eng.CreateChild("value", ref.Elems[0])
	if err != nil {
		return nil, err
	}

	_, notNull := LookupAnnotation[NotNull](ref)

	return NewOptional(inner, notNull), nil
}
