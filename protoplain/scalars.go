package protoplain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func scalarFromObject(fd protoreflect.FieldDescriptor, val any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		switch b := val.(type) {
		case bool:
			return protoreflect.ValueOfBool(b), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return protoreflect.Value{}, fmt.Errorf("%w: %q is not a bool", ErrInvalidValue, b)
			}
			return protoreflect.ValueOfBool(parsed), nil
		}
	case protoreflect.EnumKind:
		return enumFromObject(fd.Enum(), val)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		i, err := toInt64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return protoreflect.Value{}, fmt.Errorf("%w: %d overflows int32", ErrInvalidValue, i)
		}
		return protoreflect.ValueOfInt32(int32(i)), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		i, err := toInt64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(i), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		u, err := toUint64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if u > math.MaxUint32 {
			return protoreflect.Value{}, fmt.Errorf("%w: %d overflows uint32", ErrInvalidValue, u)
		}
		return protoreflect.ValueOfUint32(uint32(u)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		u, err := toUint64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint64(u), nil
	case protoreflect.FloatKind:
		f, err := toFloat64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case protoreflect.DoubleKind:
		f, err := toFloat64(val)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.StringKind:
		if s, ok := val.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		switch b := val.(type) {
		case []byte:
			return protoreflect.ValueOfBytes(bytes.Clone(b)), nil
		case string:
			decoded, err := decodeBase64(b)
			if err != nil {
				return protoreflect.Value{}, fmt.Errorf("%w: bytes must be base64-encoded: %w", ErrInvalidValue, err)
			}
			return protoreflect.ValueOfBytes(decoded), nil
		}
	}
	return protoreflect.Value{}, fmt.Errorf("%w: cannot use %T for %v field", ErrInvalidValue, val, fd.Kind())
}

func scalarToObject(fd protoreflect.FieldDescriptor, val protoreflect.Value, opts ConversionOptions) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return val.Bool()
	case protoreflect.EnumKind:
		if opts.EnumsAsNames {
			if ev := fd.Enum().Values().ByNumber(val.Enum()); ev != nil {
				return string(ev.Name())
			}
		}
		return int32(val.Enum())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(val.Int())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if opts.LongsAsStrings {
			return strconv.FormatInt(val.Int(), 10)
		}
		return val.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(val.Uint())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if opts.LongsAsStrings {
			return strconv.FormatUint(val.Uint(), 10)
		}
		return val.Uint()
	case protoreflect.FloatKind:
		f := val.Float()
		if opts.JSON && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nonFiniteString(f)
		}
		return float32(f)
	case protoreflect.DoubleKind:
		f := val.Float()
		if opts.JSON && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nonFiniteString(f)
		}
		return f
	case protoreflect.StringKind:
		return val.String()
	case protoreflect.BytesKind:
		if opts.BytesAsBase64 {
			return base64.StdEncoding.EncodeToString(val.Bytes())
		}
		return bytes.Clone(val.Bytes())
	default:
		return val.Interface()
	}
}

func nonFiniteString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f > 0:
		return "Infinity"
	default:
		return "-Infinity"
	}
}

func enumFromObject(ed protoreflect.EnumDescriptor, val any) (protoreflect.Value, error) {
	switch e := val.(type) {
	case string:
		if ev := ed.Values().ByName(protoreflect.Name(e)); ev != nil {
			return protoreflect.ValueOfEnum(ev.Number()), nil
		}
		if n, err := strconv.ParseInt(e, 10, 32); err == nil {
			return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil
		}
		return protoreflect.Value{}, fmt.Errorf("%w: %q is not a value of enum %s", ErrInvalidValue, e, ed.FullName())
	case protoreflect.EnumNumber:
		return protoreflect.ValueOfEnum(e), nil
	}
	n, err := toInt64(val)
	if err != nil {
		return protoreflect.Value{}, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return protoreflect.Value{}, fmt.Errorf("%w: %d overflows enum %s", ErrInvalidValue, n, ed.FullName())
	}
	return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil
}

func mapKeyFromString(fd protoreflect.FieldDescriptor, key string) (protoreflect.MapKey, error) {
	var val any = key
	if fd.Kind() == protoreflect.BoolKind {
		b, err := strconv.ParseBool(key)
		if err != nil {
			return protoreflect.MapKey{}, fmt.Errorf("%w: map key %q is not a bool", ErrInvalidValue, key)
		}
		val = b
	}
	v, err := scalarFromObject(fd, val)
	if err != nil {
		return protoreflect.MapKey{}, fmt.Errorf("map key %q: %w", key, err)
	}
	return v.MapKey(), nil
}

// toInt64 converts a plain number to an int64. Like a conversion from a
// float in Go, fractional values are truncated toward zero.
func toInt64(val any) (int64, error) {
	switch n := val.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		return parseInt64(string(n))
	case string:
		return parseInt64(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, val)
}

func toUint64(val any) (uint64, error) {
	switch n := val.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case json.Number:
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return u, nil
		}
	case string:
		if u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64); err == nil {
			return u, nil
		}
	}
	i, err := toInt64(val)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidValue, i)
	}
	return uint64(i), nil
}

func toFloat64(val any) (float64, error) {
	switch n := val.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return parseFloat64(string(n))
	case string:
		return parseFloat64(strings.TrimSpace(n))
	}
	i, err := toInt64(val)
	if err != nil {
		if u, ok := val.(uint64); ok {
			return float64(u), nil
		}
		return 0, err
	}
	return float64(i), nil
}

func uintToInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, u)
	}
	return int64(u), nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is out of range for an integer", ErrInvalidValue, f)
	}
	return int64(f), nil
}

func parseInt64(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return floatToInt64(f)
}

func parseFloat64(s string) (float64, error) {
	switch s {
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return f, nil
}

func decodeBase64(s string) ([]byte, error) {
	enc := base64.StdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
	}
	if len(s)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}
	return enc.DecodeString(s)
}
