package protoresolve

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// TypeNameFromURL extracts the fully-qualified type name from the given URL.
// The URL is one that could be used with a google.protobuf.Any message. The
// last path component is the fully-qualified name.
func TypeNameFromURL(url string) protoreflect.FullName {
	pos := strings.LastIndexByte(url, '/')
	return protoreflect.FullName(url[pos+1:])
}

// findMessage resolves name with res and checks that it names a message.
func findMessage(res DescriptorResolver, name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	d, err := res.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("descriptor %q is %s, not a message", name, descType(d))
	}
	return md, nil
}

// findExtension resolves name with res and checks that it names an extension.
func findExtension(res DescriptorResolver, name protoreflect.FullName) (protoreflect.ExtensionDescriptor, error) {
	d, err := res.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	fld, ok := d.(protoreflect.FieldDescriptor)
	if !ok {
		return nil, fmt.Errorf("descriptor %q is %s, not an extension", name, descType(d))
	}
	if !fld.IsExtension() {
		return nil, fmt.Errorf("descriptor %q is a field, not an extension", name)
	}
	return fld, nil
}

// registryTypes is the TypeResolver view of a Registry. Message types are
// dynamic and cached in the registry. Extensions that carry a generated type
// use it.
type registryTypes struct {
	reg *Registry
}

func (t registryTypes) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	if mt, ok := t.reg.msgTypes.Load(name); ok {
		return mt.(protoreflect.MessageType), nil
	}
	md, err := t.reg.FindMessageByName(name)
	if err != nil {
		return nil, err
	}
	mt, _ := t.reg.msgTypes.LoadOrStore(name, dynamicpb.NewMessageType(md))
	return mt.(protoreflect.MessageType), nil
}

func (t registryTypes) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	return t.FindMessageByName(TypeNameFromURL(url))
}

func (t registryTypes) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionType, error) {
	ext, err := t.reg.FindExtensionByName(name)
	if err != nil {
		return nil, err
	}
	return extensionType(ext), nil
}

func (t registryTypes) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	ext, err := t.reg.FindExtensionByNumber(message, field)
	if err != nil {
		return nil, err
	}
	return extensionType(ext), nil
}

func (t registryTypes) FindEnumByName(name protoreflect.FullName) (protoreflect.EnumType, error) {
	d, err := t.reg.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	ed, ok := d.(protoreflect.EnumDescriptor)
	if !ok {
		return nil, fmt.Errorf("descriptor %q is %s, not an enum", name, descType(d))
	}
	return dynamicpb.NewEnumType(ed), nil
}

func extensionType(ext protoreflect.ExtensionDescriptor) protoreflect.ExtensionType {
	if xtd, ok := ext.(protoreflect.ExtensionTypeDescriptor); ok {
		return xtd.Type()
	}
	return dynamicpb.NewExtensionType(ext)
}
