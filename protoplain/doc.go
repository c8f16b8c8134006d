// Package protoplain converts protobuf messages to and from plain Go values:
// maps, slices, and scalars, the sort of values produced by decoding JSON
// into an `any`.
//
// The conversion is structural by default. Each field maps to an entry in a
// map[string]any keyed by the field's name, and nested messages become nested
// maps. A handful of well-known types have a more natural plain form than
// their literal field layout, so conversion for them is overridden by a
// Wrapper found in a WrapperRegistry:
//
//   - google.protobuf.Any: rendered as the decoded payload plus an "@type"
//     entry, instead of as a type URL and opaque bytes.
//   - google.protobuf.Timestamp: created from RFC 3339 text or a time.Time
//     and rendered as a time.Time.
//   - google.protobuf.Duration: created from text such as "5m" or "36h" and
//     rendered as text such as "300s".
//
// The special renderings only apply when ConversionOptions.JSON is set.
// Otherwise, the well-known types are rendered structurally, like any other
// message. Creating messages from plain values always accepts the special
// forms.
//
// Conversions are performed by an Engine, which resolves message types by
// name and supplies the wrappers. Engines are immutable and safe for
// concurrent use.
package protoplain
