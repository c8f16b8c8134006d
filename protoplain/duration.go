package protoplain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// durationUnits maps the suffix of duration text to a number of seconds.
var durationUnits = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 60 * 60,
	'd': 24 * 60 * 60,
}

func durationFromObject(t *Type, object any) (protoreflect.Message, error) {
	switch v := object.(type) {
	case string:
		seconds, err := parseDurationText(v)
		if err != nil {
			return nil, err
		}
		return t.Create(map[string]any{"seconds": seconds})
	case time.Duration:
		return t.Create(map[string]any{
			"seconds": int64(v / time.Second),
			"nanos":   int32(v % time.Second),
		})
	default:
		return t.StructuralFromObject(object)
	}
}

func durationToObject(t *Type, msg protoreflect.Message, opts ConversionOptions) (any, error) {
	if opts.JSON {
		if seconds, nanos, ok := secondsAndNanos(msg); ok && nanos == 0 {
			return strconv.FormatInt(seconds, 10) + "s", nil
		}
	}
	return t.StructuralToObject(msg, opts)
}

// parseDurationText returns the number of seconds in text like "90s", "5m",
// or "-2d". Only the leading integer of the magnitude is used, so "1.5h" is
// one hour.
func parseDurationText(text string) (int64, error) {
	if text == "" {
		return 0, ErrInvalidDurationUnit
	}
	multiplier, ok := durationUnits[text[len(text)-1]]
	if !ok {
		return 0, fmt.Errorf("%q: %w", text, ErrInvalidDurationUnit)
	}
	magnitude, err := parseLeadingInt(text[:len(text)-1])
	if err != nil {
		return 0, fmt.Errorf("%q: %w", text, err)
	}
	if magnitude > math.MaxInt64/multiplier || magnitude < math.MinInt64/multiplier {
		return 0, fmt.Errorf("%q: %w: out of range", text, ErrInvalidDurationValue)
	}
	return magnitude * multiplier, nil
}

// parseLeadingInt parses the decimal integer at the start of s, after any
// whitespace. Anything after the digits is ignored.
func parseLeadingInt(s string) (int64, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, ErrInvalidDurationValue
	}
	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidDurationValue)
	}
	return i, nil
}
