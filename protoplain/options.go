package protoplain

// ConversionOptions control how messages are rendered as plain values.
type ConversionOptions struct {
	// JSON selects the JSON-friendly rendering of well-known types. It also
	// renders non-finite floating point values as the strings "NaN",
	// "Infinity", and "-Infinity".
	JSON bool
	// Defaults includes fields that are not set, with their default values.
	// Members of oneofs are never included unless set.
	Defaults bool
	// EnumsAsNames renders enum values as the names of the values instead
	// of as numbers. Numbers that have no corresponding name are still
	// rendered as numbers.
	EnumsAsNames bool
	// LongsAsStrings renders 64-bit integers as decimal strings.
	LongsAsStrings bool
	// BytesAsBase64 renders bytes fields as base64-encoded strings instead
	// of as []byte.
	BytesAsBase64 bool
	// JSONNames uses the fields' JSON names (lowerCamelCase by default) as
	// object keys instead of the names declared in the schema.
	JSONNames bool
}

// JSONConversion is the set of options used when rendering messages as JSON.
var JSONConversion = ConversionOptions{
	JSON:           true,
	EnumsAsNames:   true,
	LongsAsStrings: true,
	BytesAsBase64:  true,
	JSONNames:      true,
}
