// Package protoresolve contains named types for the resolvers used when
// converting messages to and from plain values.
//
// The core protobuf API accepts resolvers in a number of places, like when
// unmarshalling from binary or when expanding google.protobuf.Any messages.
// However, it uses anonymous interface types for most of these cases. This
// package provides named types, useful for more compact parameter and field
// declarations as well as type assertions.
//
// The core API also includes two resolver implementations:
//   - protoregistry.Files: for resolving descriptors.
//   - protoregistry.Types: for resolving types.
//
// When all types are dynamic, like when schemas are compiled from source at
// runtime, using the above two types requires registering everything twice.
// The Registry type in this package lets callers register descriptors once
// and then use the result as a type resolver, too, backed by dynamic types.
//
// Resolvers can be layered with Combine, so that one is tried first (the
// "preferred" resolver) and others are consulted only when it fails to
// resolve an element. This is useful to blend known and unknown types.
//
// The global registries (protoregistry.GlobalFiles and
// protoregistry.GlobalTypes) are available as a Resolver via the
// GlobalDescriptors value.
package protoresolve
