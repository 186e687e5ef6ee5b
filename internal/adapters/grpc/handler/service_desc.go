package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TimeclockServiceName は gRPC サービス名です。
const TimeclockServiceName = "timeclock.v1.TimeclockService"

// TimeclockServiceServer は TimeclockService のサーバー側インターフェースです。
// リクエストとレスポンスは google.protobuf.Struct で表現します。
type TimeclockServiceServer interface {
	RegisterEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetHourlyRate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartShift(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndShift(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DailyEntries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PendingOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectOvertime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MonthlyHours(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PayrollReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(TimeclockServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// FullMethod は RPC の完全なメソッド名を返します。
func FullMethod(method string) string {
	return "/" + TimeclockServiceName + "/" + method
}

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TimeclockServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(TimeclockServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TimeclockServiceDesc は TimeclockService の grpc.ServiceDesc です。
var TimeclockServiceDesc = grpc.ServiceDesc{
	ServiceName: TimeclockServiceName,
	HandlerType: (*TimeclockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("RegisterEmployee", TimeclockServiceServer.RegisterEmployee),
		unaryMethod("GetEmployee", TimeclockServiceServer.GetEmployee),
		unaryMethod("ListEmployees", TimeclockServiceServer.ListEmployees),
		unaryMethod("SetHourlyRate", TimeclockServiceServer.SetHourlyRate),
		unaryMethod("StartShift", TimeclockServiceServer.StartShift),
		unaryMethod("EndShift", TimeclockServiceServer.EndShift),
		unaryMethod("DailyEntries", TimeclockServiceServer.DailyEntries),
		unaryMethod("StartOvertime", TimeclockServiceServer.StartOvertime),
		unaryMethod("EndOvertime", TimeclockServiceServer.EndOvertime),
		unaryMethod("ListOvertime", TimeclockServiceServer.ListOvertime),
		unaryMethod("PendingOvertime", TimeclockServiceServer.PendingOvertime),
		unaryMethod("ApproveOvertime", TimeclockServiceServer.ApproveOvertime),
		unaryMethod("RejectOvertime", TimeclockServiceServer.RejectOvertime),
		unaryMethod("MonthlyHours", TimeclockServiceServer.MonthlyHours),
		unaryMethod("PayrollReport", TimeclockServiceServer.PayrollReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timeclock/v1/timeclock.proto",
}

// RegisterTimeclockServiceServer は srv を gRPC サーバーへ登録します。
func RegisterTimeclockServiceServer(s grpc.ServiceRegistrar, srv TimeclockServiceServer) {
	s.RegisterService(&TimeclockServiceDesc, srv)
}

// TimeclockServiceClient は TimeclockService のクライアントです。
type TimeclockServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTimeclockServiceClient は TimeclockServiceClient を生成します。
func NewTimeclockServiceClient(cc grpc.ClientConnInterface) *TimeclockServiceClient {
	return &TimeclockServiceClient{cc: cc}
}

// Call は method を呼び出し、結果のエンベロープを返します。
func (c *TimeclockServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
