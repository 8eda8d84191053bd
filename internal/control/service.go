// Package control exposes a DataStore over gRPC: time seeks, flushes,
// history counts, entity listing, preference inspection and removal.
//
// The service has no generated stubs. Requests and responses are
// google.protobuf.Struct messages described on each Server method, and the
// service descriptor below is written the way protoc-gen-go-grpc would
// emit it.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "simdata.v1.DataStoreService"

const (
	methodSetTime      = "SetTime"
	methodFlush        = "Flush"
	methodGetCounts    = "GetCounts"
	methodListEntities = "ListEntities"
	methodGetPrefs     = "GetPrefs"
	methodRemoveEntity = "RemoveEntity"
)

func fullMethod(m string) string { return "/" + ServiceName + "/" + m }

// DataStoreServiceServer is the server API for the control service.
type DataStoreServiceServer interface {
	SetTime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Flush(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEntities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPrefs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(DataStoreServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DataStoreServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(DataStoreServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for the control service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DataStoreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodSetTime, Handler: unaryHandler(methodSetTime, DataStoreServiceServer.SetTime)},
		{MethodName: methodFlush, Handler: unaryHandler(methodFlush, DataStoreServiceServer.Flush)},
		{MethodName: methodGetCounts, Handler: unaryHandler(methodGetCounts, DataStoreServiceServer.GetCounts)},
		{MethodName: methodListEntities, Handler: unaryHandler(methodListEntities, DataStoreServiceServer.ListEntities)},
		{MethodName: methodGetPrefs, Handler: unaryHandler(methodGetPrefs, DataStoreServiceServer.GetPrefs)},
		{MethodName: methodRemoveEntity, Handler: unaryHandler(methodRemoveEntity, DataStoreServiceServer.RemoveEntity)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "simdata/v1/datastore.proto",
}

// RegisterDataStoreServiceServer registers srv on s.
func RegisterDataStoreServiceServer(s grpc.ServiceRegistrar, srv DataStoreServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
