package protoresolve

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Registry implements the full Resolver interface defined in this package. It is
// thread-safe and can be used for all kinds of operations where types or descriptors
// may need to be resolved from names or numbers.
//
// The zero value is an empty registry, ready to use.
type Registry struct {
	mu    sync.RWMutex
	files protoregistry.Files
	exts  map[protoreflect.FullName]map[protoreflect.FieldNumber]protoreflect.ExtensionDescriptor

	// dynamic message types, created on first use and then reused so that
	// repeated lookups of the same name yield the same type
	msgTypes sync.Map // map[protoreflect.FullName]protoreflect.MessageType
}

var _ Resolver = (*Registry)(nil)

// typeContainer is implemented by both file and message descriptors.
type typeContainer interface {
	Messages() protoreflect.MessageDescriptors
	Extensions() protoreflect.ExtensionDescriptors
}

// FromFiles returns a new registry that contains all the files in the given
// pool. The pool is copied, so callers may continue to use it.
//
// This may return an error if the given files include conflicting extension
// definitions (i.e. more than one extension for the same extended message and
// tag number).
func FromFiles(files FilePool) (*Registry, error) {
	reg := &Registry{}
	var err error
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		err = reg.RegisterFile(fd)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterFile adds the given file to the registry. It returns an error if
// the file's path or any of its elements conflict with ones already
// registered.
func (r *Registry) RegisterFile(file protoreflect.FileDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkExtensionsLocked(file); err != nil {
		if _, findFileErr := r.files.FindFileByPath(file.Path()); findFileErr == nil {
			return fmt.Errorf("file %q already registered", file.Path())
		}
		return err
	}
	if err := r.files.RegisterFile(file); err != nil {
		return err
	}
	r.registerExtensionsLocked(file)
	return nil
}

// RegisterFileRecursive registers the given file and, before it, all of the
// files it imports that are not yet registered.
func (r *Registry) RegisterFileRecursive(file protoreflect.FileDescriptor) error {
	if _, err := r.FindFileByPath(file.Path()); err == nil {
		// already registered
		return nil
	}
	imports := file.Imports()
	for i, length := 0, imports.Len(); i < length; i++ {
		dep := imports.Get(i).FileDescriptor
		if dep.IsPlaceholder() {
			continue
		}
		if err := r.RegisterFileRecursive(dep); err != nil {
			return err
		}
	}
	return r.RegisterFile(file)
}

func (r *Registry) checkExtensionsLocked(container typeContainer) error {
	exts := container.Extensions()
	for i, length := 0, exts.Len(); i < length; i++ {
		ext := exts.Get(i)
		existing := r.exts[ext.ContainingMessage().FullName()][ext.Number()]
		if existing != nil {
			if existing.FullName() == ext.FullName() {
				return fmt.Errorf("extension named %q already registered", ext.FullName())
			}
			return fmt.Errorf("extension number %d for message %q already registered (existing: %q; trying to register: %q)",
				ext.Number(), ext.ContainingMessage().FullName(), existing.FullName(), ext.FullName())
		}
	}

	msgs := container.Messages()
	for i, length := 0, msgs.Len(); i < length; i++ {
		if err := r.checkExtensionsLocked(msgs.Get(i)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerExtensionsLocked(container typeContainer) {
	exts := container.Extensions()
	for i, length := 0, exts.Len(); i < length; i++ {
		ext := exts.Get(i)
		if r.exts == nil {
			r.exts = map[protoreflect.FullName]map[protoreflect.FieldNumber]protoreflect.ExtensionDescriptor{}
		}
		extsForMsg := r.exts[ext.ContainingMessage().FullName()]
		if extsForMsg == nil {
			extsForMsg = map[protoreflect.FieldNumber]protoreflect.ExtensionDescriptor{}
			r.exts[ext.ContainingMessage().FullName()] = extsForMsg
		}
		extsForMsg[ext.Number()] = ext
	}

	msgs := container.Messages()
	for i, length := 0, msgs.Len(); i < length; i++ {
		r.registerExtensionsLocked(msgs.Get(i))
	}
}

// FindFileByPath implements part of the Resolver interface.
func (r *Registry) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.files.FindFileByPath(path)
}

// NumFiles implements part of the FilePool interface.
func (r *Registry) NumFiles() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.files.NumFiles()
}

// RangeFiles implements part of the FilePool interface.
func (r *Registry) RangeFiles(fn func(protoreflect.FileDescriptor) bool) {
	var files []protoreflect.FileDescriptor
	func() {
		r.mu.RLock()
		defer r.mu.RUnlock()
		files = make([]protoreflect.FileDescriptor, 0, r.files.NumFiles())
		r.files.RangeFiles(func(f protoreflect.FileDescriptor) bool {
			files = append(files, f)
			return true
		})
	}()
	for _, file := range files {
		if !fn(file) {
			return
		}
	}
}

// FindDescriptorByName implements part of the Resolver interface.
func (r *Registry) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.files.FindDescriptorByName(name)
}

// FindMessageByName implements part of the Resolver interface.
func (r *Registry) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	return findMessage(r, name)
}

// FindMessageByURL implements part of the Resolver interface.
func (r *Registry) FindMessageByURL(url string) (protoreflect.MessageDescriptor, error) {
	return r.FindMessageByName(TypeNameFromURL(url))
}

// FindExtensionByName implements part of the Resolver interface.
func (r *Registry) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionDescriptor, error) {
	return findExtension(r, name)
}

// FindExtensionByNumber implements part of the Resolver interface.
func (r *Registry) FindExtensionByNumber(message protoreflect.FullName, fieldNumber protoreflect.FieldNumber) (protoreflect.ExtensionDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext := r.exts[message][fieldNumber]
	if ext == nil {
		return nil, protoregistry.NotFound
	}
	return ext, nil
}

// AsTypeResolver implements part of the Resolver interface. Message types
// returned are dynamic and are cached, so resolving the same name twice
// returns the same type.
func (r *Registry) AsTypeResolver() TypeResolver {
	return registryTypes{reg: r}
}

func descType(d protoreflect.Descriptor) string {
	switch d := d.(type) {
	case protoreflect.FileDescriptor:
		return "a file"
	case protoreflect.MessageDescriptor:
		return "a message"
	case protoreflect.FieldDescriptor:
		if d.IsExtension() {
			return "an extension"
		}
		return "a field"
	case protoreflect.OneofDescriptor:
		return "a oneof"
	case protoreflect.EnumDescriptor:
		return "an enum"
	case protoreflect.EnumValueDescriptor:
		return "an enum value"
	case protoreflect.ServiceDescriptor:
		return "a service"
	case protoreflect.MethodDescriptor:
		return "a method"
	default:
		return fmt.Sprintf("a %T", d)
	}
}
