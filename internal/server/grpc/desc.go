package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "contenthistory.v1.History"

// Method names of the History service.
const (
	MethodListVersions   = "ListVersions"
	MethodGetVersion     = "GetVersion"
	MethodDeleteVersions = "DeleteVersions"
	MethodKeepVersions   = "KeepVersions"
	MethodCurrentHash    = "CurrentHash"
)

// FullMethod returns "/service/method" for name.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// HistoryServer is the server API of the History service. Messages are
// structpb.Struct; field names live in package convert.
type HistoryServer interface {
	ListVersions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetVersion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteVersions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	KeepVersions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrentHash(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(HistoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	full := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				return call(srv.(HistoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*structpb.Struct))
			}
			return ic(ctx, in, info, h)
		},
	}
}

// HistoryServiceDesc describes the History service for grpc.Server.
var HistoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodListVersions, HistoryServer.ListVersions),
		unary(MethodGetVersion, HistoryServer.GetVersion),
		unary(MethodDeleteVersions, HistoryServer.DeleteVersions),
		unary(MethodKeepVersions, HistoryServer.KeepVersions),
		unary(MethodCurrentHash, HistoryServer.CurrentHash),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contenthistory/v1/history.proto",
}

// RegisterHistoryServer registers srv on s.
func RegisterHistoryServer(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&HistoryServiceDesc, srv)
}

// HistoryClient calls the History service.
type HistoryClient struct{ cc grpc.ClientConnInterface }

// NewHistoryClient wraps a connection.
func NewHistoryClient(cc grpc.ClientConnInterface) *HistoryClient { return &HistoryClient{cc: cc} }

func (c *HistoryClient) invoke(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HistoryClient) ListVersions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListVersions, in, opts...)
}

func (c *HistoryClient) GetVersion(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetVersion, in, opts...)
}

func (c *HistoryClient) DeleteVersions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDeleteVersions, in, opts...)
}

func (c *HistoryClient) KeepVersions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodKeepVersions, in, opts...)
}

func (c *HistoryClient) CurrentHash(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCurrentHash, in, opts...)
}
