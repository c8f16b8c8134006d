package protoplain

import (
	"sort"
	"strings"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Names of the well-known types that have wrappers in DefaultWrappers.
const (
	AnyName       = ".google.protobuf.Any"
	TimestampName = ".google.protobuf.Timestamp"
	DurationName  = ".google.protobuf.Duration"
)

// Wrapper overrides conversion for a single message type. Both functions
// are given the Type being converted, which can be used to resolve other
// types or to fall back to structural conversion.
//
// Either function may be nil, in which case conversion in that direction is
// structural.
type Wrapper struct {
	FromObject func(t *Type, object any) (protoreflect.Message, error)
	ToObject   func(t *Type, msg protoreflect.Message, opts ConversionOptions) (any, error)
}

// WrapperRegistry maps fully-qualified message names to wrappers. A registry
// is immutable once created, so it can be shared freely across goroutines.
//
// Names are stored with a leading dot, like ".google.protobuf.Any". All
// methods accept names with or without the leading dot.
type WrapperRegistry struct {
	wrappers map[string]Wrapper
}

// NewWrapperRegistry returns a registry with the given entries. If two keys
// refer to the same name, one with a leading dot and one without, which of
// the two is kept is unspecified.
func NewWrapperRegistry(entries map[string]Wrapper) *WrapperRegistry {
	wrappers := make(map[string]Wrapper, len(entries))
	for name, w := range entries {
		wrappers[normalizeWrapperName(name)] = w
	}
	return &WrapperRegistry{wrappers: wrappers}
}

var defaultWrappers = sync.OnceValue(func() *WrapperRegistry {
	return NewWrapperRegistry(map[string]Wrapper{
		AnyName:       {FromObject: anyFromObject, ToObject: anyToObject},
		TimestampName: {FromObject: timestampFromObject, ToObject: timestampToObject},
		DurationName:  {FromObject: durationFromObject, ToObject: durationToObject},
	})
})

// DefaultWrappers returns the registry of wrappers for google.protobuf.Any,
// google.protobuf.Timestamp, and google.protobuf.Duration. The same registry
// is returned on every call.
func DefaultWrappers() *WrapperRegistry {
	return defaultWrappers()
}

// Lookup returns the wrapper for the given fully-qualified message name. It
// is safe to call on a nil registry, which contains no wrappers.
func (r *WrapperRegistry) Lookup(name string) (Wrapper, bool) {
	if r == nil {
		return Wrapper{}, false
	}
	w, ok := r.wrappers[normalizeWrapperName(name)]
	return w, ok
}

// With returns a copy of r that also contains the given wrapper. If r already
// has a wrapper for name, it is replaced in the copy. The receiver is not
// modified. With may be called on a nil registry.
func (r *WrapperRegistry) With(name string, w Wrapper) *WrapperRegistry {
	var wrappers map[string]Wrapper
	if r == nil {
		wrappers = map[string]Wrapper{}
	} else {
		wrappers = make(map[string]Wrapper, len(r.wrappers)+1)
		for k, v := range r.wrappers {
			wrappers[k] = v
		}
	}
	wrappers[normalizeWrapperName(name)] = w
	return &WrapperRegistry{wrappers: wrappers}
}

// Names returns the names of all wrapped types, in sorted order.
func (r *WrapperRegistry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.wrappers))
	for name := range r.wrappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of wrapped types.
func (r *WrapperRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.wrappers)
}

func normalizeWrapperName(name string) string {
	if strings.HasPrefix(name, ".") {
		return name
	}
	return "." + name
}
