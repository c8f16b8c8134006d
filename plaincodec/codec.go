// Package plaincodec provides a gRPC codec that marshals messages as JSON,
// using the plain-value mapping of package protoplain. So well-known types
// like google.protobuf.Timestamp and google.protobuf.Any appear in their
// JSON-friendly form on the wire.
package plaincodec

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"

	"github.com/jhump/protoplain/protoplain"
)

// Name is the name of the codec, which is also the content-subtype used in
// gRPC requests that use it: "application/grpc+plainjson".
const Name = "plainjson"

// Codec implements encoding.Codec using an engine to convert messages to
// and from JSON.
type Codec struct {
	engine *protoplain.Engine
}

var _ encoding.Codec = (*Codec)(nil)

// New returns a codec that uses the given engine. If engine is nil, an
// engine that resolves types using the global registry is used.
func New(engine *protoplain.Engine) *Codec {
	if engine == nil {
		engine = protoplain.NewEngine(nil)
	}
	return &Codec{engine: engine}
}

// Marshal returns the JSON form of v, which must be a proto.Message.
func (c *Codec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("failed to marshal: %T is not a proto.Message", v)
	}
	return c.engine.MarshalJSON(msg)
}

// Unmarshal parses the given JSON into v, which must be a proto.Message.
// Any existing contents of v are discarded.
func (c *Codec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("failed to unmarshal: %T is not a proto.Message", v)
	}
	return c.engine.UnmarshalJSON(data, msg)
}

// Name returns Name.
func (c *Codec) Name() string {
	return Name
}

// Register registers the given codec with the gRPC runtime, so that clients
// can select it via grpc.CallContentSubtype(Name) and servers use it for
// requests with that content-subtype. This replaces any codec previously
// registered with the same name. Like encoding.RegisterCodec, this should
// only be called during initialization.
func Register(c *Codec) {
	encoding.RegisterCodec(c)
}

// CallOption returns a call option that makes an RPC use the given codec,
// without it having to be registered.
func CallOption(c *Codec) grpc.CallOption {
	return grpc.ForceCodec(c)
}

// ServerOption returns a server option that makes a server use the given
// codec for all requests, regardless of their content-subtype.
func ServerOption(c *Codec) grpc.ServerOption {
	return grpc.ForceServerCodec(c)
}
