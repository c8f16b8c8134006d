package protoplain

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Layouts accepted for timestamp text, tried in order. Fractional seconds
// are accepted after the seconds field of any layout. Text without a zone
// offset is in UTC.
// Bounds of google.protobuf.Timestamp seconds: 0001-01-01T00:00:00Z and
// 9999-12-31T23:59:59Z.
const (
	minTimestampSeconds = -62135596800
	maxTimestampSeconds = 253402300799
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func timestampFromObject(t *Type, object any) (protoreflect.Message, error) {
	var ts time.Time
	switch v := object.(type) {
	case string:
		var err error
		if ts, err = parseTimestamp(v); err != nil {
			return nil, err
		}
	case time.Time:
		ts = v
	case *time.Time:
		if v == nil {
			return t.StructuralFromObject(nil)
		}
		ts = *v
	default:
		return t.StructuralFromObject(object)
	}
	millis := ts.UnixMilli()
	return t.Create(map[string]any{
		"seconds": floorDiv(millis, 1000),
		"nanos":   floorMod(millis, 1000) * int64(time.Millisecond),
	})
}

func timestampToObject(t *Type, msg protoreflect.Message, opts ConversionOptions) (any, error) {
	if !opts.JSON {
		return t.StructuralToObject(msg, opts)
	}
	seconds, nanos, ok := secondsAndNanos(msg)
	if !ok {
		return t.StructuralToObject(msg, opts)
	}
	if seconds < minTimestampSeconds || seconds > maxTimestampSeconds {
		return nil, fmt.Errorf("%w: timestamp seconds %d out of range", ErrInvalidValue, seconds)
	}
	return time.UnixMilli(seconds*1000 + int64(nanos)/int64(time.Millisecond)).UTC(), nil
}

func parseTimestamp(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestampText, text)
}

// secondsAndNanos returns the fields shared by google.protobuf.Timestamp and
// google.protobuf.Duration. It returns false if msg does not have them.
func secondsAndNanos(msg protoreflect.Message) (seconds int64, nanos int32, ok bool) {
	fields := msg.Descriptor().Fields()
	secondsField := fields.ByName("seconds")
	nanosField := fields.ByName("nanos")
	if secondsField == nil || secondsField.Kind() != protoreflect.Int64Kind || secondsField.IsList() ||
		nanosField == nil || nanosField.Kind() != protoreflect.Int32Kind || nanosField.IsList() {
		return 0, 0, false
	}
	return msg.Get(secondsField).Int(), int32(msg.Get(nanosField).Int()), true
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

func floorMod(x, y int64) int64 {
	return x - floorDiv(x, y)*y
}
