package prototest

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// RegisterEchoService registers an implementation of the given Echo service
// with s. The service uses dynamic messages, so it works with whichever codec
// the server is configured to use.
//
// The methods behave as follows:
//   - Echo returns the request.
//   - Repeat sends the request back as many times as its count field says.
//   - Collect returns a message whose tags are the names of all requests and
//     whose count is the number of requests.
//   - Chat sends back each request as it is received.
func RegisterEchoService(s grpc.ServiceRegistrar, sd protoreflect.ServiceDescriptor) {
	svc := &echoService{sd: sd}
	methods := sd.Methods()
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: string(sd.FullName()),
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Echo", Handler: svc.echo},
		},
		Streams: []grpc.StreamDesc{
			{StreamName: "Repeat", Handler: svc.repeat, ServerStreams: true},
			{StreamName: "Collect", Handler: svc.collect, ClientStreams: true},
			{StreamName: "Chat", Handler: svc.chat, ServerStreams: true, ClientStreams: true},
		},
		Metadata: methods.Get(0).ParentFile().Path(),
	}, svc)
}

type echoService struct {
	sd protoreflect.ServiceDescriptor
}

func (e *echoService) newMessage(method protoreflect.Name) *dynamicpb.Message {
	return dynamicpb.NewMessage(e.sd.Methods().ByName(method).Input())
}

func (e *echoService) echo(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := e.newMessage("Echo")
	if err := dec(req); err != nil {
		return nil, err
	}
	handler := func(_ context.Context, req any) (any, error) {
		return req, nil
	}
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: e, FullMethod: "/" + string(e.sd.FullName()) + "/Echo"}
	return interceptor(ctx, req, info, handler)
}

func (e *echoService) repeat(_ any, ss grpc.ServerStream) error {
	req := e.newMessage("Repeat")
	if err := ss.RecvMsg(req); err != nil {
		return err
	}
	count := req.Get(req.Descriptor().Fields().ByName("count")).Int()
	for i := int64(0); i < count; i++ {
		if err := ss.SendMsg(req); err != nil {
			return err
		}
	}
	return nil
}

func (e *echoService) collect(_ any, ss grpc.ServerStream) error {
	resp := e.newMessage("Collect")
	fields := resp.Descriptor().Fields()
	nameField, tagsField, countField := fields.ByName("name"), fields.ByName("tags"), fields.ByName("count")
	tags := resp.Mutable(tagsField).List()
	var count int32
	for {
		req := e.newMessage("Collect")
		err := ss.RecvMsg(req)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		tags.Append(req.Get(nameField))
		count++
	}
	resp.Set(countField, protoreflect.ValueOfInt32(count))
	return ss.SendMsg(resp)
}

func (e *echoService) chat(_ any, ss grpc.ServerStream) error {
	for {
		req := e.newMessage("Chat")
		err := ss.RecvMsg(req)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ss.SendMsg(req); err != nil {
			return err
		}
	}
}
