package protoplain

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jhump/protoplain/internal/jsoncodec"
)

// MarshalJSON renders the given message as JSON. The message is first
// converted to a plain value with JSONConversion, so wrappers for well-known
// types are applied.
func (t *Type) MarshalJSON(msg protoreflect.Message) ([]byte, error) {
	obj, err := t.ToObject(msg, JSONConversion)
	if err != nil {
		return nil, err
	}
	data, err := jsoncodec.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s to JSON: %w", t.FullName(), err)
	}
	return data, nil
}

// UnmarshalJSON parses the given JSON into a new message of this type.
func (t *Type) UnmarshalJSON(data []byte) (protoreflect.Message, error) {
	var obj any
	if err := jsoncodec.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s from JSON: %w", t.FullName(), err)
	}
	return t.FromObject(obj)
}

// EncodeJSON writes the given message to w as JSON, followed by a newline.
// Like MarshalJSON, it uses JSONConversion.
func (t *Type) EncodeJSON(w io.Writer, msg protoreflect.Message) error {
	obj, err := t.ToObject(msg, JSONConversion)
	if err != nil {
		return err
	}
	if err := jsoncodec.Encode(w, obj); err != nil {
		return fmt.Errorf("failed to encode %s as JSON: %w", t.FullName(), err)
	}
	return nil
}

// DecodeJSON reads the next JSON value from r and converts it into a new
// message of this type. It returns io.EOF when r has no more values.
func (t *Type) DecodeJSON(r io.Reader) (protoreflect.Message, error) {
	var obj any
	if err := jsoncodec.Decode(r, &obj); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode %s from JSON: %w", t.FullName(), err)
	}
	return t.FromObject(obj)
}
