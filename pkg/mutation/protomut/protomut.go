// Package protomut adapts protobuf message descriptors to the mutation
// engine.
//
// A [Factory] added to a mutation.Engine recognizes TypeRefs carrying a
// [MessageDesc] annotation and builds a mutator whose values are
// *dynamicpb.Message instances of the described message. Each field maps to
// a combinator tree: scalars to primitive mutators, optional fields and
// singular messages to optionals, repeated fields to sequences, oneofs to
// tagged variants with an explicit absent branch, and maps to sequences of
// key/value records deduplicated by key on decode. Nested and recursive
// messages recurse through the engine, so cycles are broken by the engine's
// delayed placeholders.
package protomut

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/GratitechInc/jazzer/pkg/mutation"
)

// defaultRepeatedCap bounds repeated and map fields that the descriptor
// leaves unbounded.
const defaultRepeatedCap = 1000

// MessageDesc annotates a record TypeRef with the protobuf descriptor it
// was derived from.
type MessageDesc struct {
	Desc protoreflect.MessageDescriptor
}

// AnnotationKey implements mutation.Annotation.
func (MessageDesc) AnnotationKey() string { return "protomut_message" }

// MessageRef builds the TypeRef for a message descriptor. The record name
// is the message's full name, which is what lets the engine detect
// recursive messages.
func MessageRef(desc protoreflect.MessageDescriptor) *mutation.TypeRef {
	return &mutation.TypeRef{
		Kind:        mutation.KindRecord,
		Name:        string(desc.FullName()),
		Annotations: []mutation.Annotation{MessageDesc{Desc: desc}},
	}
}

// NewMessageMutator builds a mutator for desc using a fresh engine with the
// default chain plus a protomut Factory.
func NewMessageMutator(desc protoreflect.MessageDescriptor) (mutation.Mutator, error) {
	eng := mutation.NewEngine(Factory{})

	return eng.Create(MessageRef(desc))
}

// Factory builds message mutators from descriptor-annotated TypeRefs.
//
// MaxRepeated bounds repeated and map field lengths; zero means the
// default of 1000.
type Factory struct {
	MaxRepeated int
}

// TryCreate implements mutation.Factory.
func (f Factory) TryCreate(ref *mutation.TypeRef, eng *mutation.Engine) (mutation.Mutator, error) {
	if ref.Kind != mutation.KindRecord {
		return nil, nil
	}

	ann, ok := mutation.LookupAnnotation[MessageDesc](ref)
	if !ok {
		return nil, nil
	}

	maxRepeated := f.MaxRepeated
	if maxRepeated <= 0 {
		maxRepeated = defaultRepeatedCap
	}

	b := &builder{eng: eng, maxRepeated: maxRepeated}

	return b.message(ann.Desc)
}

type builder struct {
	eng         *mutation.Engine
	maxRepeated int
}

// message assembles the slot list for desc: non-oneof fields in declaration
// order, then oneof groups in declaration order. Synthetic oneofs (proto3
// optional) count as plain fields with presence.
func (b *builder) message(desc protoreflect.MessageDescriptor) (mutation.Mutator, error) {
	var slots []*slot

	fields := desc.Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)

		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			continue
		}

		s, err := b.fieldSlot(fd)
		if err != nil {
			return nil, err
		}

		slots = append(slots, s)
	}

	oneofs := desc.Oneofs()
	for i := range oneofs.Len() {
		od := oneofs.Get(i)
		if od.IsSynthetic() {
			continue
		}

		s, err := b.oneofSlot(od)
		if err != nil {
			return nil, err
		}

		slots = append(slots, s)
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("protomut: message %s has no fields", desc.FullName())
	}

	children := make([]mutation.Mutator, len(slots))
	for i, s := range slots {
		children[i] = s.mut
	}

	inner := mutation.NewProduct(string(desc.Name()), children...)

	return &messageMutator{desc: desc, slots: slots, inner: inner}, nil
}

// slotKind discriminates how a slot maps between engine values and message
// fields.
type slotKind int

const (
	slotScalar   slotKind = iota // implicit-presence scalar, raw engine value
	slotOptional                 // explicit presence, mutation.Option
	slotRepeated                 // list, []any
	slotMap                      // map, []any of []any{key, value} pairs
	slotOneof                    // oneof group, mutation.Tagged
)

type slot struct {
	kind slotKind
	mut  mutation.Mutator

	fd protoreflect.FieldDescriptor // scalar/optional/repeated/map

	od      protoreflect.OneofDescriptor   // oneof
	members []protoreflect.FieldDescriptor // oneof members, absent branch last
}

func (b *builder) fieldSlot(fd protoreflect.FieldDescriptor) (*slot, error) {
	name := string(fd.Name())

	switch {
	case fd.IsMap():
		entry, err := b.mapEntryMutator(fd)
		if err != nil {
			return nil, err
		}

		rep, err := mutation.NewRepeated(entry, 0, b.maxRepeated)
		if err != nil {
			return nil, err
		}

		return &slot{kind: slotMap, fd: fd, mut: rep}, nil

	case fd.IsList():
		elem, err := b.valueMutator(name+"[*]", fd)
		if err != nil {
			return nil, err
		}

		rep, err := mutation.NewRepeated(elem, 0, b.maxRepeated)
		if err != nil {
			return nil, err
		}

		return &slot{kind: slotRepeated, fd: fd, mut: rep}, nil

	case fd.HasPresence():
		inner, err := b.valueMutator(name, fd)
		if err != nil {
			return nil, err
		}

		return &slot{kind: slotOptional, fd: fd, mut: mutation.NewOptional(inner, false)}, nil

	default:
		m, err := b.valueMutator(name, fd)
		if err != nil {
			return nil, err
		}

		return &slot{kind: slotScalar, fd: fd, mut: m}, nil
	}
}

func (b *builder) oneofSlot(od protoreflect.OneofDescriptor) (*slot, error) {
	fields := od.Fields()

	members := make([]mutation.Mutator, 0, fields.Len()+1)
	fds := make([]protoreflect.FieldDescriptor, 0, fields.Len())

	for i := range fields.Len() {
		fd := fields.Get(i)

		m, err := b.valueMutator("oneof:"+string(fd.Name()), fd)
		if err != nil {
			return nil, err
		}

		members = append(members, m)
		fds = append(fds, fd)
	}

	// The absent branch lets the group as a whole be unset.
	members = append(members, mutation.NewFixedValue(nil, "absent"))

	return &slot{
		kind:    slotOneof,
		od:      od,
		members: fds,
		mut:     mutation.NewSum(string(od.Name()), members...),
	}, nil
}

func (b *builder) mapEntryMutator(fd protoreflect.FieldDescriptor) (mutation.Mutator, error) {
	key, err := b.valueMutator(string(fd.Name())+".key", fd.MapKey())
	if err != nil {
		return nil, err
	}

	val, err := b.valueMutator(string(fd.Name())+".value", fd.MapValue())
	if err != nil {
		return nil, err
	}

	return mutation.NewProduct(string(fd.Name())+"Entry", key, val), nil
}

// valueMutator builds the mutator for one field value (ignoring
// presence/cardinality, which the slot layers on top).
func (b *builder) valueMutator(path string, fd protoreflect.FieldDescriptor) (mutation.Mutator, error) {
	ref, err := scalarRef(fd)
	if err != nil {
		return nil, err
	}

	return b.eng.CreateChild(path, ref)
}

// scalarRef maps a field kind to the engine TypeRef it mutates under.
// Unsigned 32-bit kinds ride on Int64 with a [0, 2^32-1] range; unsigned
// 64-bit kinds reinterpret the full Int64 domain. Enums mutate as an index
// into the declared values.
func scalarRef(fd protoreflect.FieldDescriptor) (*mutation.TypeRef, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return mutation.BoolRef(), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return mutation.Int32Ref(), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return mutation.Int64Ref(), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		lo, hi := int64(0), int64(math.MaxUint32)

		return mutation.Int64Ref(mutation.Range{Min: &lo, Max: &hi}), nil
	case protoreflect.FloatKind:
		return mutation.Float32Ref(), nil
	case protoreflect.DoubleKind:
		return mutation.Float64Ref(), nil
	case protoreflect.StringKind:
		return mutation.StringRef(), nil
	case protoreflect.BytesKind:
		return mutation.BytesRef(), nil
	case protoreflect.EnumKind:
		n := fd.Enum().Values().Len()
		if n < 2 {
			// A single-valued enum is a domain of size 1 and cannot be
			// mutated.
			return nil, fmt.Errorf("protomut: enum %s has fewer than two values", fd.Enum().FullName())
		}

		lo, hi := int64(0), int64(n-1)

		return mutation.Int32Ref(mutation.Range{Min: &lo, Max: &hi}), nil
	case protoreflect.MessageKind:
		return MessageRef(fd.Message()), nil
	default:
		return nil, fmt.Errorf("protomut: unsupported field kind %v on %s", fd.Kind(), fd.FullName())
	}
}

// messageMutator wraps the engine's product mutator for a message,
// converting between []any slot values and *dynamicpb.Message.
type messageMutator struct {
	desc  protoreflect.MessageDescriptor
	slots []*slot
	inner mutation.Mutator
}

func (m *messageMutator) Init(prng mutation.PseudoRandom) any {
	return m.toMessage(m.inner.Init(prng).([]any))
}

func (m *messageMutator) Mutate(value any, prng mutation.PseudoRandom) any {
	prev := value.(*dynamicpb.Message)
	vals := m.fromMessage(prev)

	// Map collapse can undo an engine-level change (e.g. a duplicated
	// key/value pair); retry until the message itself changed.
	for {
		next := m.toMessage(m.inner.Mutate(vals, prng).([]any))
		if !proto.Equal(prev, next) {
			return next
		}
	}
}

func (m *messageMutator) Read(in *mutation.Reader) any {
	return m.toMessage(m.inner.Read(in).([]any))
}

func (m *messageMutator) Write(value any, out *mutation.Writer) {
	m.inner.Write(m.fromMessage(value.(*dynamicpb.Message)), out)
}

func (m *messageMutator) Detach(value any) any {
	return proto.Clone(value.(*dynamicpb.Message)).(*dynamicpb.Message)
}

func (m *messageMutator) DebugString(inCycle func(mutation.Mutator) bool) string {
	if inCycle != nil && inCycle(m) {
		return string(m.desc.Name())
	}

	pred := func(x mutation.Mutator) bool {
		if x == mutation.Mutator(m) {
			return true
		}

		return inCycle != nil && inCycle(x)
	}

	return m.inner.DebugString(pred)
}

func (m *messageMutator) FixedSize() bool { return false }

func (m *messageMutator) SharesState() bool { return false }

// toMessage assembles a fresh dynamic message from slot values.
func (m *messageMutator) toMessage(vals []any) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(m.desc)

	for i, s := range m.slots {
		s.apply(msg, vals[i])
	}

	return msg
}

// fromMessage extracts slot values. It is the inverse of toMessage for
// messages the mutator produced.
func (m *messageMutator) fromMessage(msg *dynamicpb.Message) []any {
	vals := make([]any, len(m.slots))
	for i, s := range m.slots {
		vals[i] = s.extract(msg)
	}

	return vals
}

func (s *slot) apply(msg *dynamicpb.Message, v any) {
	switch s.kind {
	case slotScalar:
		msg.Set(s.fd, toProtoValue(s.fd, v))

	case slotOptional:
		opt := v.(mutation.Option)
		if opt.Present {
			msg.Set(s.fd, toProtoValue(s.fd, opt.Value))
		}

	case slotRepeated:
		elems := v.([]any)
		if len(elems) == 0 {
			return
		}

		list := msg.Mutable(s.fd).List()
		for _, e := range elems {
			list.Append(toProtoValue(s.fd, e))
		}

	case slotMap:
		pairs := v.([]any)
		if len(pairs) == 0 {
			return
		}

		mp := msg.Mutable(s.fd).Map()
		for _, p := range pairs {
			kv := p.([]any)
			key := toProtoValue(s.fd.MapKey(), kv[0]).MapKey()
			mp.Set(key, toProtoValue(s.fd.MapValue(), kv[1]))
		}

	case slotOneof:
		tagged := v.(mutation.Tagged)
		if tagged.Tag >= len(s.members) {
			return // absent branch
		}

		fd := s.members[tagged.Tag]
		msg.Set(fd, toProtoValue(fd, tagged.Value))
	}
}

func (s *slot) extract(msg *dynamicpb.Message) any {
	switch s.kind {
	case slotScalar:
		return fromProtoValue(s.fd, msg.Get(s.fd))

	case slotOptional:
		if !msg.Has(s.fd) {
			return mutation.Option{}
		}

		return mutation.Option{Present: true, Value: fromProtoValue(s.fd, msg.Get(s.fd))}

	case slotRepeated:
		list := msg.Get(s.fd).List()

		elems := make([]any, list.Len())
		for i := range list.Len() {
			elems[i] = fromProtoValue(s.fd, list.Get(i))
		}

		return elems

	case slotMap:
		mp := msg.Get(s.fd).Map()

		type pair struct {
			sortKey string
			kv      []any
		}

		pairs := make([]pair, 0, mp.Len())

		mp.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			pairs = append(pairs, pair{
				sortKey: k.String(),
				kv: []any{
					fromProtoValue(s.fd.MapKey(), k.Value()),
					fromProtoValue(s.fd.MapValue(), v),
				},
			})

			return true
		})

		// Map iteration order is random; keep extraction deterministic.
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].sortKey < pairs[j].sortKey })

		out := make([]any, len(pairs))
		for i, p := range pairs {
			out[i] = p.kv
		}

		return out

	default: // slotOneof
		fd := msg.WhichOneof(s.od)
		if fd == nil {
			return mutation.Tagged{Tag: len(s.members), Value: nil}
		}

		for i, member := range s.members {
			if member.Number() == fd.Number() {
				return mutation.Tagged{Tag: i, Value: fromProtoValue(fd, msg.Get(fd))}
			}
		}

		// A oneof member not in the slot table is impossible for messages
		// this mutator built.
		panic(fmt.Sprintf("protomut: unknown oneof member %s", fd.FullName()))
	}
}

// toProtoValue converts an engine value to a protoreflect value for fd.
func toProtoValue(fd protoreflect.FieldDescriptor, v any) protoreflect.Value {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.(bool))
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(v.(int64)))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(v.(int64))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(v.(int64)))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(uint64(v.(int64)))
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(v.(float32))
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(v.(float64))
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(v.(string))
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes(v.([]byte))
	case protoreflect.EnumKind:
		values := fd.Enum().Values()
		idx := int(v.(int64)) % values.Len()

		return protoreflect.ValueOfEnum(values.Get(idx).Number())
	case protoreflect.MessageKind:
		return protoreflect.ValueOfMessage(v.(*dynamicpb.Message))
	default:
		panic(fmt.Sprintf("protomut: unsupported field kind %v", fd.Kind()))
	}
}

// fromProtoValue converts a protoreflect value back to the engine value
// representation.
func fromProtoValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed64Kind:
		return int64(v.Uint())
	case protoreflect.FloatKind:
		return float32(v.Float())
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return v.Bytes()
	case protoreflect.EnumKind:
		values := fd.Enum().Values()
		number := v.Enum()

		for i := range values.Len() {
			if values.Get(i).Number() == number {
				return int64(i)
			}
		}

		return int64(0)
	case protoreflect.MessageKind:
		return v.Message().Interface().(*dynamicpb.Message)
	default:
		panic(fmt.Sprintf("protomut: unsupported field kind %v", fd.Kind()))
	}
}
