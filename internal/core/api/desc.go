package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "formrel.v1.RelationService"

// Full method names, as seen by interceptors.
const (
	EvaluateMethod     = "/" + ServiceName + "/Evaluate"
	RegisterFormMethod = "/" + ServiceName + "/RegisterForm"
	ListFormsMethod    = "/" + ServiceName + "/ListForms"
	DeleteFormMethod   = "/" + ServiceName + "/DeleteForm"
)

// RelationServiceServer is the server API for formrel.v1.RelationService.
type RelationServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterForm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListForms(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	DeleteForm(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterRelationServiceServer registers srv on s.
func RegisterRelationServiceServer(s grpc.ServiceRegistrar, srv RelationServiceServer) {
	s.RegisterService(&RelationServiceDesc, srv)
}

// RelationServiceDesc describes formrel.v1.RelationService.
var RelationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    unary(EvaluateMethod, RelationServiceServer.Evaluate),
		},
		{
			MethodName: "RegisterForm",
			Handler:    unary(RegisterFormMethod, RelationServiceServer.RegisterForm),
		},
		{
			MethodName: "ListForms",
			Handler:    unary(ListFormsMethod, RelationServiceServer.ListForms),
		},
		{
			MethodName: "DeleteForm",
			Handler:    unary(DeleteFormMethod, RelationServiceServer.DeleteForm),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "formrel/v1/relation.proto",
}

// unary adapts a typed method to a grpc.MethodHandler, running it through
// the server's interceptor chain when one is installed.
func unary[Req, Resp proto.Message](
	fullMethod string,
	call func(RelationServiceServer, context.Context, Req) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		var in Req
		in = in.ProtoReflect().Type().New().Interface().(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RelationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RelationServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RelationServiceClient calls formrel.v1.RelationService.
type RelationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRelationServiceClient wraps a client connection.
func NewRelationServiceClient(cc grpc.ClientConnInterface) *RelationServiceClient {
	return &RelationServiceClient{cc: cc}
}

func (c *RelationServiceClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RelationServiceClient) RegisterForm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RegisterFormMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RelationServiceClient) ListForms(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListFormsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RelationServiceClient) DeleteForm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, DeleteFormMethod, in, &emptypb.Empty{}, opts...)
}
