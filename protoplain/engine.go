package protoplain

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jhump/protoplain/protoresolve"
)

// Engine converts messages to and from plain values. It resolves message
// types by name, which is needed to expand google.protobuf.Any messages, and
// consults a WrapperRegistry for types whose plain form is special.
//
// An Engine is immutable once created and is safe for concurrent use.
type Engine struct {
	types    protoresolve.TypeResolver
	wrappers *WrapperRegistry
}

// EngineOption is an option used to customize an Engine.
type EngineOption func(*Engine)

// WithWrappers configures the wrappers used by the engine. If not used, the
// engine uses DefaultWrappers. A nil registry disables all wrappers, so all
// conversions are structural.
func WithWrappers(reg *WrapperRegistry) EngineOption {
	return func(e *Engine) {
		e.wrappers = reg
	}
}

// NewEngine returns an engine that resolves message types using the given
// resolver. If types is nil, protoregistry.GlobalTypes is used.
func NewEngine(types protoresolve.TypeResolver, opts ...EngineOption) *Engine {
	if types == nil {
		types = protoregistry.GlobalTypes
	}
	e := &Engine{types: types, wrappers: DefaultWrappers()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForResolver returns an engine that resolves message types using the given
// resolver, falling back to the global registries for names it cannot
// resolve.
func ForResolver(res protoresolve.Resolver, opts ...EngineOption) *Engine {
	return NewEngine(protoresolve.Combine(res, protoresolve.GlobalDescriptors).AsTypeResolver(), opts...)
}

// Resolver returns the type resolver used by the engine.
func (e *Engine) Resolver() protoresolve.TypeResolver {
	return e.types
}

// Wrappers returns the wrappers used by the engine. It may be nil.
func (e *Engine) Wrappers() *WrapperRegistry {
	return e.wrappers
}

// Lookup returns the type with the given fully-qualified name. The name may
// have a leading dot. If no such message type can be resolved, it returns
// false.
func (e *Engine) Lookup(name string) (*Type, bool) {
	name = strings.TrimPrefix(name, ".")
	if name == "" {
		return nil, false
	}
	mt, err := e.types.FindMessageByName(protoreflect.FullName(name))
	if err != nil {
		return nil, false
	}
	return e.TypeOf(mt), true
}

// TypeOf returns the type for the given message type.
func (e *Engine) TypeOf(mt protoreflect.MessageType) *Type {
	return &Type{engine: e, mt: mt}
}

// TypeFor returns the type for the given message descriptor. The engine's
// resolver is consulted first, so a generated type is used if one is known.
// Otherwise, the returned type creates dynamic messages.
func (e *Engine) TypeFor(md protoreflect.MessageDescriptor) *Type {
	if mt, err := e.types.FindMessageByName(md.FullName()); err == nil {
		return e.TypeOf(mt)
	}
	return e.TypeOf(dynamicpb.NewMessageType(md))
}

// MarshalJSON renders the given message as JSON, using JSONConversion.
func (e *Engine) MarshalJSON(msg proto.Message) ([]byte, error) {
	m := msg.ProtoReflect()
	return e.TypeOf(m.Type()).MarshalJSON(m)
}

// UnmarshalJSON parses the given JSON data into msg. Any existing contents
// of msg are discarded.
func (e *Engine) UnmarshalJSON(data []byte, msg proto.Message) error {
	m := msg.ProtoReflect()
	decoded, err := e.TypeOf(m.Type()).UnmarshalJSON(data)
	if err != nil {
		return err
	}
	proto.Reset(msg)
	proto.Merge(msg, decoded.Interface())
	return nil
}
