package protoresolve

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// GlobalDescriptors is a Resolver backed by protoregistry.GlobalFiles, whose
// type view is protoregistry.GlobalTypes. Engines fall back to it for names
// their own registry does not define.
var GlobalDescriptors Resolver = globalResolver{Files: protoregistry.GlobalFiles}

type globalResolver struct {
	*protoregistry.Files
}

func (g globalResolver) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	return findMessage(g.Files, name)
}

func (g globalResolver) FindMessageByURL(url string) (protoreflect.MessageDescriptor, error) {
	return g.FindMessageByName(TypeNameFromURL(url))
}

func (g globalResolver) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionDescriptor, error) {
	return findExtension(g.Files, name)
}

func (g globalResolver) FindExtensionByNumber(message protoreflect.FullName, number protoreflect.FieldNumber) (protoreflect.ExtensionDescriptor, error) {
	xt, err := protoregistry.GlobalTypes.FindExtensionByNumber(message, number)
	if err != nil {
		return nil, err
	}
	return xt.TypeDescriptor(), nil
}

func (g globalResolver) AsTypeResolver() TypeResolver {
	return protoregistry.GlobalTypes
}
