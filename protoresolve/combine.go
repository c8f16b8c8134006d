package protoresolve

import (
	"errors"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Combine returns a resolver that iterates through the given resolvers to find elements.
// The first resolver given is the first one checked, so will always be the preferred resolver.
// When that returns a protoregistry.NotFound error, the next resolver will be checked, and so on.
//
// The NumFiles method only returns the number of files reported by the first resolver.
// (Computing an accurate number of files across all resolvers could be an expensive
// operation.) However, RangeFiles does return files across all resolvers. It emits files
// for the first resolver first. If any subsequent resolver contains duplicates, they are
// suppressed such that the callback will only ever be invoked once for a given file path.
func Combine(res ...Resolver) Resolver {
	return combined(res)
}

type combined []Resolver

func (c combined) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	for _, res := range c {
		file, err := res.FindFileByPath(path)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return file, err
	}
	return nil, protoregistry.NotFound
}

func (c combined) NumFiles() int {
	if len(c) == 0 {
		return 0
	}
	return c[0].NumFiles()
}

func (c combined) RangeFiles(f func(protoreflect.FileDescriptor) bool) {
	observed := map[string]struct{}{}
	keepGoing := true
	for _, res := range c {
		res.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
			if _, ok := observed[fd.Path()]; ok {
				return true
			}
			observed[fd.Path()] = struct{}{}
			keepGoing = f(fd)
			return keepGoing
		})
		if !keepGoing {
			return
		}
	}
}

func (c combined) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	for _, res := range c {
		d, err := res.FindDescriptorByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return d, err
	}
	return nil, protoregistry.NotFound
}

func (c combined) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	for _, res := range c {
		msg, err := res.FindMessageByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return msg, err
	}
	return nil, protoregistry.NotFound
}

func (c combined) FindMessageByURL(url string) (protoreflect.MessageDescriptor, error) {
	for _, res := range c {
		msg, err := res.FindMessageByURL(url)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return msg, err
	}
	return nil, protoregistry.NotFound
}

func (c combined) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionDescriptor, error) {
	for _, res := range c {
		ext, err := res.FindExtensionByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return ext, err
	}
	return nil, protoregistry.NotFound
}

func (c combined) FindExtensionByNumber(message protoreflect.FullName, number protoreflect.FieldNumber) (protoreflect.ExtensionDescriptor, error) {
	for _, res := range c {
		ext, err := res.FindExtensionByNumber(message, number)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return ext, err
	}
	return nil, protoregistry.NotFound
}

// AsTypeResolver returns a type resolver that consults the type resolvers of
// each underlying resolver, in order. So types resolved from the first
// resolver are preferred, whether they are generated or dynamic.
func (c combined) AsTypeResolver() TypeResolver {
	types := make(combinedTypes, len(c))
	for i, res := range c {
		types[i] = res.AsTypeResolver()
	}
	return types
}

type combinedTypes []TypeResolver

func (c combinedTypes) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionType, error) {
	for _, res := range c {
		ext, err := res.FindExtensionByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return ext, err
	}
	return nil, protoregistry.NotFound
}

func (c combinedTypes) FindExtensionByNumber(message protoreflect.FullName, number protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	for _, res := range c {
		ext, err := res.FindExtensionByNumber(message, number)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return ext, err
	}
	return nil, protoregistry.NotFound
}

func (c combinedTypes) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	for _, res := range c {
		msg, err := res.FindMessageByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return msg, err
	}
	return nil, protoregistry.NotFound
}

func (c combinedTypes) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	for _, res := range c {
		msg, err := res.FindMessageByURL(url)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return msg, err
	}
	return nil, protoregistry.NotFound
}

func (c combinedTypes) FindEnumByName(name protoreflect.FullName) (protoreflect.EnumType, error) {
	for _, res := range c {
		en, err := res.FindEnumByName(name)
		if errors.Is(err, protoregistry.NotFound) {
			continue
		}
		return en, err
	}
	return nil, protoregistry.NotFound
}
