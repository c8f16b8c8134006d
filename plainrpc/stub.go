// Package plainrpc provides an RPC stub that sends and receives plain
// values. Requests are converted to messages, and responses converted back,
// using a protoplain.Engine. Only method descriptors need to be known; the
// request and response messages may be dynamic messages.
package plainrpc

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jhump/protoplain/protoplain"
)

// Stub is an RPC client stub, used for dynamically dispatching RPCs to a server.
type Stub struct {
	channel grpc.ClientConnInterface
	engine  *protoplain.Engine
	opts    protoplain.ConversionOptions
}

// NewStub creates a new RPC stub that uses the given channel for dispatching RPCs.
func NewStub(channel grpc.ClientConnInterface, opts ...StubOption) *Stub {
	stub := &Stub{channel: channel, opts: protoplain.JSONConversion}
	for _, opt := range opts {
		opt.apply(stub)
	}
	if stub.engine == nil {
		stub.engine = protoplain.NewEngine(nil)
	}
	return stub
}

// StubOption is an option that can be used to customize behavior when creating a Stub.
type StubOption interface {
	apply(*Stub)
}

type stubOptionFunc func(*Stub)

func (s stubOptionFunc) apply(stub *Stub) {
	s(stub)
}

// WithEngine returns a StubOption that causes a Stub to use the given engine
// to convert requests and responses. If not specified, an engine that uses
// [protoregistry.GlobalTypes] is used. Messages whose types the engine cannot
// resolve are created as dynamic messages.
func WithEngine(engine *protoplain.Engine) StubOption {
	return stubOptionFunc(func(s *Stub) {
		s.engine = engine
	})
}

// WithConversionOptions returns a StubOption that controls how response
// messages are rendered as plain values. If not specified,
// protoplain.JSONConversion is used.
func WithConversionOptions(opts protoplain.ConversionOptions) StubOption {
	return stubOptionFunc(func(s *Stub) {
		s.opts = opts
	})
}

func requestMethod(md protoreflect.MethodDescriptor) string {
	return fmt.Sprintf("/%s/%s", md.Parent().FullName(), md.Name())
}

// InvokeRpc sends a unary RPC and returns the response. Use this for unary methods.
func (s *Stub) InvokeRpc(ctx context.Context, method protoreflect.MethodDescriptor, request any, opts ...grpc.CallOption) (any, error) {
	if method.IsStreamingClient() || method.IsStreamingServer() {
		return nil, fmt.Errorf("InvokeRpc is for unary methods; %q is %s", method.FullName(), methodType(method))
	}
	req, err := s.engine.TypeFor(method.Input()).FromObject(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request for %q: %w", method.FullName(), err)
	}
	respType := s.engine.TypeFor(method.Output())
	resp := respType.New()
	if err := s.channel.Invoke(ctx, requestMethod(method), req.Interface(), resp.Interface(), opts...); err != nil {
		return nil, err
	}
	return respType.ToObject(resp, s.opts)
}

// InvokeRpcServerStream sends a unary RPC and returns the response stream. Use this for server-streaming methods.
func (s *Stub) InvokeRpcServerStream(ctx context.Context, method protoreflect.MethodDescriptor, request any, opts ...grpc.CallOption) (*ServerStream, error) {
	if method.IsStreamingClient() || !method.IsStreamingServer() {
		return nil, fmt.Errorf("InvokeRpcServerStream is for server-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	req, err := s.engine.TypeFor(method.Input()).FromObject(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request for %q: %w", method.FullName(), err)
	}
	ctx, cancel := context.WithCancel(ctx)
	cs, err := s.channel.NewStream(ctx, streamDesc(method), requestMethod(method), opts...)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cs.SendMsg(req.Interface()); err != nil {
		cancel()
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		// when the new stream is finished, also cleanup the parent context
		<-cs.Context().Done()
		cancel()
	}()
	return &ServerStream{
		stream:   cs,
		respType: s.engine.TypeFor(method.Output()),
		opts:     s.opts,
	}, nil
}

// InvokeRpcClientStream creates a new stream that is used to send request messages and, at the end,
// receive the response message. Use this for client-streaming methods.
func (s *Stub) InvokeRpcClientStream(ctx context.Context, method protoreflect.MethodDescriptor, opts ...grpc.CallOption) (*ClientStream, error) {
	if !method.IsStreamingClient() || method.IsStreamingServer() {
		return nil, fmt.Errorf("InvokeRpcClientStream is for client-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	ctx, cancel := context.WithCancel(ctx)
	cs, err := s.channel.NewStream(ctx, streamDesc(method), requestMethod(method), opts...)
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		// when the new stream is finished, also cleanup the parent context
		<-cs.Context().Done()
		cancel()
	}()
	return &ClientStream{
		stream:   cs,
		method:   method,
		reqType:  s.engine.TypeFor(method.Input()),
		respType: s.engine.TypeFor(method.Output()),
		opts:     s.opts,
		cancel:   cancel,
	}, nil
}

// InvokeRpcBidiStream creates a new stream that is used to both send request messages and receive response
// messages. Use this for bidi-streaming methods.
func (s *Stub) InvokeRpcBidiStream(ctx context.Context, method protoreflect.MethodDescriptor, opts ...grpc.CallOption) (*BidiStream, error) {
	if !method.IsStreamingClient() || !method.IsStreamingServer() {
		return nil, fmt.Errorf("InvokeRpcBidiStream is for bidi-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	cs, err := s.channel.NewStream(ctx, streamDesc(method), requestMethod(method), opts...)
	if err != nil {
		return nil, err
	}
	return &BidiStream{
		stream:   cs,
		reqType:  s.engine.TypeFor(method.Input()),
		respType: s.engine.TypeFor(method.Output()),
		opts:     s.opts,
	}, nil
}

func streamDesc(method protoreflect.MethodDescriptor) *grpc.StreamDesc {
	return &grpc.StreamDesc{
		StreamName:    string(method.Name()),
		ServerStreams: method.IsStreamingServer(),
		ClientStreams: method.IsStreamingClient(),
	}
}

func methodType(md protoreflect.MethodDescriptor) string {
	switch {
	case md.IsStreamingClient() && md.IsStreamingServer():
		return "bidi-streaming"
	case md.IsStreamingClient():
		return "client-streaming"
	case md.IsStreamingServer():
		return "server-streaming"
	default:
		return "unary"
	}
}

// ServerStream represents a response stream from a server. Messages in the stream can be queried
// as can header and trailer metadata sent by the server.
type ServerStream struct {
	stream   grpc.ClientStream
	respType *protoplain.Type
	opts     protoplain.ConversionOptions
}

// Header returns any header metadata sent by the server (blocks if necessary until headers are
// received).
func (s *ServerStream) Header() (metadata.MD, error) {
	return s.stream.Header()
}

// Trailer returns the trailer metadata sent by the server. It must only be called after
// RecvMsg returns a non-nil error (which may be EOF for normal completion of stream).
func (s *ServerStream) Trailer() metadata.MD {
	return s.stream.Trailer()
}

// Context returns the context associated with this streaming operation.
func (s *ServerStream) Context() context.Context {
	return s.stream.Context()
}

// RecvMsg returns the next message in the response stream or an error. If the stream
// has completed normally, the error is io.EOF. Otherwise, the error indicates the
// nature of the abnormal termination of the stream.
func (s *ServerStream) RecvMsg() (any, error) {
	return recvMsg(s.stream, s.respType, s.opts)
}

// ClientStream represents a response stream from a client. Messages in the stream can be sent
// and, when done, the unary server message and header and trailer metadata can be queried.
type ClientStream struct {
	stream   grpc.ClientStream
	method   protoreflect.MethodDescriptor
	reqType  *protoplain.Type
	respType *protoplain.Type
	opts     protoplain.ConversionOptions
	cancel   context.CancelFunc
}

// Header returns any header metadata sent by the server (blocks if necessary until headers are
// received).
func (s *ClientStream) Header() (metadata.MD, error) {
	return s.stream.Header()
}

// Trailer returns the trailer metadata sent by the server. It must only be called after
// RecvMsg returns a non-nil error (which may be EOF for normal completion of stream).
func (s *ClientStream) Trailer() metadata.MD {
	return s.stream.Trailer()
}

// Context returns the context associated with this streaming operation.
func (s *ClientStream) Context() context.Context {
	return s.stream.Context()
}

// SendMsg converts the given plain value to a request message and sends it to the server.
func (s *ClientStream) SendMsg(request any) error {
	return sendMsg(s.stream, s.reqType, request)
}

// CloseAndReceive closes the outgoing request stream and then blocks for the server's response.
func (s *ClientStream) CloseAndReceive() (any, error) {
	if err := s.stream.CloseSend(); err != nil {
		return nil, err
	}
	resp := s.respType.New()
	if err := s.stream.RecvMsg(resp.Interface()); err != nil {
		return nil, err
	}

	// make sure we get EOF for a second message
	if err := s.stream.RecvMsg(s.respType.New().Interface()); err != io.EOF {
		if err == nil {
			s.cancel()
			return nil, fmt.Errorf("client-streaming method %q returned more than one response message", s.method.FullName())
		}
		return nil, err
	}
	return s.respType.ToObject(resp, s.opts)
}

// BidiStream represents a bi-directional stream for sending messages to and receiving
// messages from a server. The header and trailer metadata sent by the server can also be
// queried.
type BidiStream struct {
	stream   grpc.ClientStream
	reqType  *protoplain.Type
	respType *protoplain.Type
	opts     protoplain.ConversionOptions
}

// Header returns any header metadata sent by the server (blocks if necessary until headers are
// received).
func (s *BidiStream) Header() (metadata.MD, error) {
	return s.stream.Header()
}

// Trailer returns the trailer metadata sent by the server. It must only be called after
// RecvMsg returns a non-nil error (which may be EOF for normal completion of stream).
func (s *BidiStream) Trailer() metadata.MD {
	return s.stream.Trailer()
}

// Context returns the context associated with this streaming operation.
func (s *BidiStream) Context() context.Context {
	return s.stream.Context()
}

// SendMsg converts the given plain value to a request message and sends it to the server.
func (s *BidiStream) SendMsg(request any) error {
	return sendMsg(s.stream, s.reqType, request)
}

// CloseSend indicates the request stream has ended. Invoke this after all request messages
// are sent (even if there are zero such messages).
func (s *BidiStream) CloseSend() error {
	return s.stream.CloseSend()
}

// RecvMsg returns the next message in the response stream or an error. If the stream
// has completed normally, the error is io.EOF. Otherwise, the error indicates the
// nature of the abnormal termination of the stream.
func (s *BidiStream) RecvMsg() (any, error) {
	return recvMsg(s.stream, s.respType, s.opts)
}

func sendMsg(stream grpc.ClientStream, reqType *protoplain.Type, request any) error {
	req, err := reqType.FromObject(request)
	if err != nil {
		return fmt.Errorf("failed to convert request: %w", err)
	}
	return stream.SendMsg(req.Interface())
}

func recvMsg(stream grpc.ClientStream, respType *protoplain.Type, opts protoplain.ConversionOptions) (any, error) {
	resp := respType.New()
	if err := stream.RecvMsg(resp.Interface()); err != nil {
		return nil, err
	}
	return respType.ToObject(resp, opts)
}
