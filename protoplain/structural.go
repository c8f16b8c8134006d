package protoplain

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// StructuralFromObject creates a message from the given plain value without
// consulting any wrapper for t itself. Fields whose types have wrappers are
// still converted by those wrappers.
//
// The given object is usually a map[string]any, keyed by field name or by
// JSON name. Unknown keys and nil values are ignored. A nil object yields an
// empty message. A message of the same type is also accepted and is returned
// as is (or copied, if it is a different Go type).
func (t *Type) StructuralFromObject(object any) (protoreflect.Message, error) {
	switch obj := object.(type) {
	case nil:
		return t.New(), nil
	case map[string]any:
		msg := t.New()
		if err := t.setFields(msg, obj); err != nil {
			return nil, err
		}
		return msg, nil
	case protoreflect.Message:
		return t.adopt(obj)
	case proto.Message:
		return t.adopt(obj.ProtoReflect())
	default:
		return nil, fmt.Errorf("%w: cannot create %s from %T", ErrNotObject, t.FullName(), object)
	}
}

// StructuralToObject renders the given message as a map[string]any without
// consulting any wrapper for t itself. Fields whose types have wrappers are
// still rendered by those wrappers.
func (t *Type) StructuralToObject(msg protoreflect.Message, opts ConversionOptions) (any, error) {
	if err := t.checkType(msg); err != nil {
		return nil, err
	}
	obj := map[string]any{}
	fields := t.Descriptor().Fields()
	for i, length := 0, fields.Len(); i < length; i++ {
		fd := fields.Get(i)
		key := string(fd.Name())
		if opts.JSONNames {
			key = fd.JSONName()
		}
		if !msg.Has(fd) {
			if opts.Defaults && fd.ContainingOneof() == nil {
				obj[key] = defaultObject(fd, opts)
			}
			continue
		}
		val, err := t.fieldToObject(fd, msg.Get(fd), opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fd.FullName(), err)
		}
		obj[key] = val
	}
	return obj, nil
}

func (t *Type) setFields(msg protoreflect.Message, obj map[string]any) error {
	fields := t.Descriptor().Fields()
	for i, length := 0, fields.Len(); i < length; i++ {
		fd := fields.Get(i)
		val, ok := obj[string(fd.Name())]
		if !ok {
			val, ok = obj[fd.JSONName()]
		}
		if !ok || val == nil {
			continue
		}
		if err := t.setField(msg, fd, val); err != nil {
			return fmt.Errorf("%s: %w", fd.FullName(), err)
		}
	}
	return nil
}

func (t *Type) setField(msg protoreflect.Message, fd protoreflect.FieldDescriptor, val any) error {
	switch {
	case fd.IsMap():
		entries, ok := val.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: map field expects an object, got %T", ErrInvalidValue, val)
		}
		mapVal := msg.Mutable(fd).Map()
		for k, v := range entries {
			key, err := mapKeyFromString(fd.MapKey(), k)
			if err != nil {
				return err
			}
			value, err := t.valueFromObject(fd.MapValue(), mapVal.NewValue(), v)
			if err != nil {
				return fmt.Errorf("map entry %q: %w", k, err)
			}
			mapVal.Set(key, value)
		}
	case fd.IsList():
		elems, err := listElements(val)
		if err != nil {
			return err
		}
		listVal := msg.Mutable(fd).List()
		for i, elem := range elems {
			value, err := t.valueFromObject(fd, listVal.NewElement(), elem)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			listVal.Append(value)
		}
	default:
		value, err := t.valueFromObject(fd, msg.NewField(fd), val)
		if err != nil {
			return err
		}
		msg.Set(fd, value)
	}
	return nil
}

// valueFromObject converts a single value, which is a map value, a list
// element, or the value of a singular field. The given zero value is a new
// value of the right type, used to find the message type for message fields.
func (t *Type) valueFromObject(fd protoreflect.FieldDescriptor, zero protoreflect.Value, val any) (protoreflect.Value, error) {
	if fd.Message() == nil {
		return scalarFromObject(fd, val)
	}
	msg, err := t.engine.TypeOf(zero.Message().Type()).FromObject(val)
	if err != nil {
		return protoreflect.Value{}, err
	}
	return protoreflect.ValueOfMessage(msg), nil
}

func (t *Type) fieldToObject(fd protoreflect.FieldDescriptor, val protoreflect.Value, opts ConversionOptions) (any, error) {
	switch {
	case fd.IsMap():
		obj := map[string]any{}
		var err error
		val.Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			var elem any
			elem, err = t.valueToObject(fd.MapValue(), v, opts)
			if err != nil {
				err = fmt.Errorf("map entry %q: %w", k.String(), err)
				return false
			}
			obj[k.String()] = elem
			return true
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	case fd.IsList():
		listVal := val.List()
		elems := make([]any, listVal.Len())
		for i := range elems {
			elem, err := t.valueToObject(fd, listVal.Get(i), opts)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
		}
		return elems, nil
	default:
		return t.valueToObject(fd, val, opts)
	}
}

func (t *Type) valueToObject(fd protoreflect.FieldDescriptor, val protoreflect.Value, opts ConversionOptions) (any, error) {
	if fd.Message() == nil {
		return scalarToObject(fd, val, opts), nil
	}
	msg := val.Message()
	return t.engine.TypeOf(msg.Type()).ToObject(msg, opts)
}

func defaultObject(fd protoreflect.FieldDescriptor, opts ConversionOptions) any {
	switch {
	case fd.IsMap():
		return map[string]any{}
	case fd.IsList():
		return []any{}
	case fd.Message() != nil:
		return nil
	default:
		return scalarToObject(fd, fd.Default(), opts)
	}
}

func listElements(val any) ([]any, error) {
	if elems, ok := val.([]any); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: repeated field expects a list, got %T", ErrInvalidValue, val)
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}
