package protoplain

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Type is a message type bound to the engine that converts it. Wrappers
// receive the Type being converted, so they can resolve other types and
// fall back to structural conversion.
type Type struct {
	engine *Engine
	mt     protoreflect.MessageType
}

// Engine returns the engine that created t.
func (t *Type) Engine() *Engine {
	return t.engine
}

// MessageType returns the underlying message type.
func (t *Type) MessageType() protoreflect.MessageType {
	return t.mt
}

// Descriptor returns the descriptor for the message type.
func (t *Type) Descriptor() protoreflect.MessageDescriptor {
	return t.mt.Descriptor()
}

// FullName returns the fully-qualified name of the message type.
func (t *Type) FullName() protoreflect.FullName {
	return t.mt.Descriptor().FullName()
}

// Lookup resolves another type, by fully-qualified name, using t's engine.
func (t *Type) Lookup(name string) (*Type, bool) {
	return t.engine.Lookup(name)
}

// New returns a new, empty message of this type.
func (t *Type) New() protoreflect.Message {
	return t.mt.New()
}

// Create returns a new message with the given field values. Unlike
// FromObject, this never consults wrappers for t itself, so the fields
// must be given in their structural form.
func (t *Type) Create(fields map[string]any) (protoreflect.Message, error) {
	return t.StructuralFromObject(fields)
}

// FromObject creates a message from the given plain value. If t has a
// wrapper, the wrapper performs the conversion. Otherwise, it is the same
// as StructuralFromObject.
func (t *Type) FromObject(object any) (protoreflect.Message, error) {
	if w, ok := t.wrapper(); ok && w.FromObject != nil {
		return w.FromObject(t, object)
	}
	return t.StructuralFromObject(object)
}

// ToObject renders the given message as a plain value. If t has a wrapper,
// the wrapper performs the conversion. Otherwise, it is the same as
// StructuralToObject.
func (t *Type) ToObject(msg protoreflect.Message, opts ConversionOptions) (any, error) {
	if err := t.checkType(msg); err != nil {
		return nil, err
	}
	if w, ok := t.wrapper(); ok && w.ToObject != nil {
		return w.ToObject(t, msg, opts)
	}
	return t.StructuralToObject(msg, opts)
}

// Encode returns the binary form of the given message. Output is
// deterministic.
func (t *Type) Encode(msg protoreflect.Message) ([]byte, error) {
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg.Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", t.FullName(), err)
	}
	return data, nil
}

// Decode parses the binary form of a message of this type.
func (t *Type) Decode(data []byte) (protoreflect.Message, error) {
	msg := t.New()
	opts := proto.UnmarshalOptions{Resolver: t.engine.types}
	if err := opts.Unmarshal(data, msg.Interface()); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t.FullName(), err)
	}
	return msg, nil
}

func (t *Type) wrapper() (Wrapper, bool) {
	return t.engine.wrappers.Lookup(string(t.FullName()))
}

func (t *Type) checkType(msg protoreflect.Message) error {
	if msg.Descriptor().FullName() != t.FullName() {
		return fmt.Errorf("%w: expecting %s, got %s", ErrTypeMismatch, t.FullName(), msg.Descriptor().FullName())
	}
	return nil
}

// adopt returns msg as an instance of t's message type. If it already is,
// it is returned as is. Otherwise, it is copied via the binary format.
func (t *Type) adopt(msg protoreflect.Message) (protoreflect.Message, error) {
	if err := t.checkType(msg); err != nil {
		return nil, err
	}
	if msg.Type() == t.mt {
		return msg, nil
	}
	data, err := t.Encode(msg)
	if err != nil {
		return nil, err
	}
	return t.Decode(data)
}
