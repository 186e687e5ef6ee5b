package interceptor

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Logging は RPC ごとに結果をログへ出力します。エンベロープの失敗種別も記録します。
func Logging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		kind := envelopeKind(resp)
		if kind != "" {
			fields = append(fields, zap.String("kind", kind))
		}

		switch {
		case err != nil:
			logger.Warn("rpc failed", append(fields, zap.Error(err))...)
		case kind == string(fault.KindBackingStore):
			logger.Error("rpc completed with backing store failure", fields...)
		default:
			logger.Info("rpc completed", fields...)
		}
		return resp, err
	}
}

func envelopeKind(resp interface{}) string {
	envelope, ok := resp.(*structpb.Struct)
	if !ok || envelope == nil {
		return ""
	}
	return envelope.GetFields()["kind"].GetStringValue()
}
