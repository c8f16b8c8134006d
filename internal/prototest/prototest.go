// Package prototest provides a schema, compiled at runtime, and a gRPC
// service for use in tests.
package prototest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jhump/protoplain/protoplain"
	"github.com/jhump/protoplain/protoresolve"
	"github.com/jhump/protoplain/protosource"
)

// Path is the path of the test schema.
const Path = "test.proto"

// Source is the test schema. It has no package, so its message names are
// not qualified: "Message" is the name of the main message.
const Source = `
syntax = "proto3";

import "google/protobuf/any.proto";
import "google/protobuf/duration.proto";
import "google/protobuf/timestamp.proto";

enum Color {
  COLOR_UNSPECIFIED = 0;
  RED = 1;
  GREEN = 2;
  BLUE = 3;
}

message Message {
  google.protobuf.Timestamp timestamp = 1;
  google.protobuf.Duration duration = 2;
  google.protobuf.Any any = 3;
  string name = 4;
  int32 count = 5;
  int64 big = 6;
  uint64 ubig = 7;
  double ratio = 8;
  float small = 9;
  bool flag = 10;
  bytes data = 11;
  Color color = 12;
  repeated string tags = 13;
  map<string, int32> counts = 14;
  repeated google.protobuf.Timestamp history = 15;
  map<string, google.protobuf.Duration> timeouts = 16;
  Nested nested = 17;
  oneof choice {
    string text = 18;
    int32 number = 19;
  }
  uint32 small_count = 20;
  map<int64, string> labels = 21;

  message Nested {
    string value = 1;
    repeated Nested children = 2;
  }
}

service Echo {
  rpc Echo(Message) returns (Message);
  rpc Repeat(Message) returns (stream Message);
  rpc Collect(stream Message) returns (Message);
  rpc Chat(stream Message) returns (stream Message);
}
`

var compiled = sync.OnceValues(func() (*protoresolve.Registry, error) {
	return protosource.Compile(context.Background(), map[string]string{Path: Source}, Path)
})

// Registry returns a registry that contains the test schema and the
// well-known types it imports. The schema is only compiled once, so all
// callers share the same registry.
func Registry(t testing.TB) *protoresolve.Registry {
	t.Helper()
	reg, err := compiled()
	require.NoError(t, err)
	return reg
}

// Engine returns an engine that resolves types from Registry, falling back
// to the global registry.
func Engine(t testing.TB, opts ...protoplain.EngineOption) *protoplain.Engine {
	t.Helper()
	return protoplain.ForResolver(Registry(t), opts...)
}

// MessageType returns the type of the test schema's Message, bound to the
// given engine.
func MessageType(t testing.TB, engine *protoplain.Engine) *protoplain.Type {
	t.Helper()
	typ, ok := engine.Lookup("Message")
	require.True(t, ok, "Message not found")
	return typ
}

// EchoService returns the descriptor for the test schema's Echo service.
func EchoService(t testing.TB) protoreflect.ServiceDescriptor {
	t.Helper()
	d, err := Registry(t).FindDescriptorByName("Echo")
	require.NoError(t, err)
	sd, ok := d.(protoreflect.ServiceDescriptor)
	require.True(t, ok, "Echo is %T, not a service", d)
	return sd
}
