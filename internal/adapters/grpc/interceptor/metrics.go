package interceptor

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/platform/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics は RPC の件数と所要時間を記録します。
func Metrics(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if m != nil {
			m.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
			m.GRPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		}
		return resp, err
	}
}
