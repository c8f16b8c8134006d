package protoresolve

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// FileResolver can resolve file descriptors by path.
type FileResolver interface {
	FindFileByPath(string) (protoreflect.FileDescriptor, error)
}

// FilePool is a file resolver that also allows enumerating all known files.
type FilePool interface {
	FileResolver
	NumFiles() int
	RangeFiles(func(protoreflect.FileDescriptor) bool)
}

var _ FilePool = (*protoregistry.Files)(nil)

// DescriptorResolver can resolve any kind of named element by its fully
// qualified name.
type DescriptorResolver interface {
	FindDescriptorByName(protoreflect.FullName) (protoreflect.Descriptor, error)
}

var _ DescriptorResolver = (*protoregistry.Files)(nil)

// DescriptorPool is a FilePool that can also resolve elements by name.
type DescriptorPool interface {
	FilePool
	DescriptorResolver
}

var _ DescriptorPool = (*protoregistry.Files)(nil)

// MessageResolver can resolve message descriptors, by name or by the
// type URL found in a google.protobuf.Any message.
type MessageResolver interface {
	FindMessageByName(protoreflect.FullName) (protoreflect.MessageDescriptor, error)
	FindMessageByURL(url string) (protoreflect.MessageDescriptor, error)
}

// ExtensionResolver can resolve extension descriptors, by name or by the
// extended message and tag number.
type ExtensionResolver interface {
	FindExtensionByName(protoreflect.FullName) (protoreflect.ExtensionDescriptor, error)
	FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionDescriptor, error)
}

// Resolver is a descriptor pool that can also resolve messages and
// extensions and can be viewed as a TypeResolver.
type Resolver interface {
	DescriptorPool
	MessageResolver
	ExtensionResolver

	// AsTypeResolver returns a view of this resolver that resolves types
	// instead of descriptors. Types that are not otherwise known are
	// returned as dynamic types.
	AsTypeResolver() TypeResolver
}

// MessageTypeResolver can resolve message types. This is the interface
// consulted by proto.UnmarshalOptions and protojson when they need to
// materialize the contents of a google.protobuf.Any message.
type MessageTypeResolver interface {
	FindMessageByName(protoreflect.FullName) (protoreflect.MessageType, error)
	FindMessageByURL(url string) (protoreflect.MessageType, error)
}

// ExtensionTypeResolver can resolve extension types.
type ExtensionTypeResolver interface {
	FindExtensionByName(protoreflect.FullName) (protoreflect.ExtensionType, error)
	FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error)
}

// SerializationResolver is the set of types needed to fully decode the
// binary format: message types (for Any) and extension types.
type SerializationResolver interface {
	MessageTypeResolver
	ExtensionTypeResolver
}

// TypeResolver can resolve message, enum, and extension types.
type TypeResolver interface {
	SerializationResolver
	FindEnumByName(protoreflect.FullName) (protoreflect.EnumType, error)
}

var _ TypeResolver = (*protoregistry.Types)(nil)
