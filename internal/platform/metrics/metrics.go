package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timeclock"

// Metrics はアプリケーションが公開するメトリクスの集合です。
type Metrics struct {
	Registry        *prometheus.Registry
	GRPCRequests    *prometheus.CounterVec
	GRPCDuration    *prometheus.HistogramVec
	PayrollExports  *prometheus.CounterVec
	DegradedReports prometheus.Counter
}

// New は専用のレジストリにメトリクスを登録して返します。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC requests by method and status code",
		}, []string{"method", "code"}),
		GRPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		PayrollExports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payroll_exports_total",
			Help:      "Total number of payroll workbook exports by status",
		}, []string{"status"}),
		DegradedReports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payroll_degraded_reports_total",
			Help:      "Total number of payroll reports built with unreadable hours",
		}),
	}
}

// Handler は /metrics 用の HTTP ハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Server はメトリクス公開用の HTTP サーバーです。
type Server struct {
	listenAddr string
	httpServer *http.Server
}

// NewServer は listenAddr で /metrics を公開するサーバーを構築します。
func NewServer(listenAddr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		listenAddr: listenAddr,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると Shutdown します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
