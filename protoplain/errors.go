package protoplain

import "errors"

var (
	// ErrInvalidDurationUnit is returned when text for a google.protobuf.Duration
	// does not end in one of the supported unit suffixes.
	ErrInvalidDurationUnit = errors.New("invalid duration unit: must be one of s, m, h, or d")
	// ErrInvalidDurationValue is returned when text for a google.protobuf.Duration
	// does not start with an integer, or when the integer is out of range.
	ErrInvalidDurationValue = errors.New("invalid duration value")
	// ErrInvalidTimestampText is returned when text for a google.protobuf.Timestamp
	// cannot be parsed as a date and time.
	ErrInvalidTimestampText = errors.New("invalid timestamp text")

	// ErrNotObject is returned when a message is to be created from a plain
	// value that is not an object (a map[string]any).
	ErrNotObject = errors.New("value is not an object")
	// ErrInvalidValue is returned when a plain value cannot be converted to
	// the type of the field it is for.
	ErrInvalidValue = errors.New("invalid value")
	// ErrTypeMismatch is returned when a message is given to a Type that
	// describes a different message.
	ErrTypeMismatch = errors.New("message type mismatch")
)
