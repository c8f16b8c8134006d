package protoplain

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// DefaultTypeURLPrefix is the prefix used for the "@type" of a rendered
// google.protobuf.Any whose type URL has no prefix of its own.
const DefaultTypeURLPrefix = "type.googleapis.com/"

// TypeKey is the key in a plain object that holds the type URL of a
// google.protobuf.Any.
const TypeKey = "@type"

// When the payload of an Any has a wrapper, or does not render as an object,
// the rendered payload is stored under this key next to TypeKey.
const anyValueKey = "value"

type anyShape int

const (
	// anyCanonical means the Any message is rendered with its own fields.
	anyCanonical = anyShape(iota)
	// anyResolved means the Any's payload was resolved and decoded, and is
	// rendered in place of the Any.
	anyResolved
)

type anyPayload struct {
	shape  anyShape
	prefix string
	typ    *Type
	msg    protoreflect.Message
}

func anyFromObject(t *Type, object any) (protoreflect.Message, error) {
	obj, ok := object.(map[string]any)
	if !ok {
		return t.StructuralFromObject(object)
	}
	typeURL, _ := obj[TypeKey].(string)
	if typeURL == "" {
		return t.StructuralFromObject(object)
	}
	resolved, ok := t.Lookup(typeURL[strings.LastIndexByte(typeURL, '/')+1:])
	if !ok {
		return t.StructuralFromObject(object)
	}

	var payload any = withoutTypeKey(obj)
	if _, wrapped := resolved.wrapper(); wrapped {
		if val, ok := obj[anyValueKey]; ok {
			payload = val
		}
	}
	msg, err := resolved.FromObject(payload)
	if err != nil {
		return nil, err
	}
	data, err := resolved.Encode(msg)
	if err != nil {
		return nil, err
	}

	typeURL = strings.TrimPrefix(typeURL, ".")
	if !strings.Contains(typeURL, "/") {
		typeURL = "/" + typeURL
	}
	return t.Create(map[string]any{
		"type_url": typeURL,
		"value":    data,
	})
}

// withoutTypeKey returns a shallow copy of obj without TypeKey. The payload
// must not carry the type URL, or an Any naming google.protobuf.Any would
// expand into itself without end.
func withoutTypeKey(obj map[string]any) map[string]any {
	payload := make(map[string]any, len(obj))
	for k, v := range obj {
		if k != TypeKey {
			payload[k] = v
		}
	}
	return payload
}

func anyToObject(t *Type, msg protoreflect.Message, opts ConversionOptions) (any, error) {
	payload, err := resolveAnyPayload(t, msg, opts)
	if err != nil {
		return nil, err
	}
	if payload.shape == anyCanonical {
		return t.StructuralToObject(msg, opts)
	}

	rendered, err := payload.typ.ToObject(payload.msg, opts)
	if err != nil {
		return nil, err
	}
	obj, isObject := rendered.(map[string]any)
	if _, wrapped := payload.typ.wrapper(); wrapped || !isObject {
		obj = map[string]any{anyValueKey: rendered}
	}
	prefix := payload.prefix
	if prefix == "" {
		prefix = DefaultTypeURLPrefix
	}
	obj[TypeKey] = prefix + strings.TrimPrefix(string(payload.typ.FullName()), ".")
	return obj, nil
}

// resolveAnyPayload decides how the given Any message is rendered. The
// payload is only decoded in JSON mode, and only when its type URL can be
// resolved. A payload that cannot be decoded is an error.
func resolveAnyPayload(t *Type, msg protoreflect.Message, opts ConversionOptions) (anyPayload, error) {
	if !opts.JSON {
		return anyPayload{shape: anyCanonical}, nil
	}
	typeURLField, valueField, ok := anyFields(t.Descriptor())
	if !ok {
		return anyPayload{shape: anyCanonical}, nil
	}
	typeURL := msg.Get(typeURLField).String()
	if typeURL == "" {
		return anyPayload{shape: anyCanonical}, nil
	}
	pos := strings.LastIndexByte(typeURL, '/')
	resolved, ok := t.Lookup(typeURL[pos+1:])
	if !ok {
		return anyPayload{shape: anyCanonical}, nil
	}
	decoded, err := resolved.Decode(msg.Get(valueField).Bytes())
	if err != nil {
		return anyPayload{}, err
	}
	return anyPayload{
		shape:  anyResolved,
		prefix: typeURL[:pos+1],
		typ:    resolved,
		msg:    decoded,
	}, nil
}

func anyFields(md protoreflect.MessageDescriptor) (typeURL, value protoreflect.FieldDescriptor, ok bool) {
	typeURL = md.Fields().ByName("type_url")
	value = md.Fields().ByName("value")
	if typeURL == nil || typeURL.Kind() != protoreflect.StringKind || typeURL.IsList() ||
		value == nil || value.Kind() != protoreflect.BytesKind || value.IsList() {
		return nil, nil, false
	}
	return typeURL, value, true
}
