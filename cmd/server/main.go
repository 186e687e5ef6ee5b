package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/export/xlsx"
	"github.com/ogurasousui/codex-timeclock/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-timeclock/internal/adapters/grpc/interceptor"
	"github.com/ogurasousui/codex-timeclock/internal/adapters/identity"
	redislock "github.com/ogurasousui/codex-timeclock/internal/adapters/lock/redis"
	"github.com/ogurasousui/codex-timeclock/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/overtime"
	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/ogurasousui/codex-timeclock/internal/core/timeentry"
	"github.com/ogurasousui/codex-timeclock/internal/platform/config"
	pg "github.com/ogurasousui/codex-timeclock/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-timeclock/internal/platform/keylock"
	"github.com/ogurasousui/codex-timeclock/internal/platform/logger"
	"github.com/ogurasousui/codex-timeclock/internal/platform/metrics"
	"github.com/ogurasousui/codex-timeclock/internal/platform/scheduler"
	"github.com/ogurasousui/codex-timeclock/internal/platform/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	lk, closeLocker, err := newLocker(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeLocker()

	m := metrics.New()
	txManager := pg.NewTransactionManager(dbPool)

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	entryRepo := postgres.NewTimeEntryRepository(dbPool)
	overtimeRepo := postgres.NewOvertimeRepository(dbPool)

	employeeSvc := employee.NewService(employeeRepo, nil, txManager,
		employee.WithLocker(lk),
		employee.WithEmailDomain(cfg.Organization.EmailDomain),
		employee.WithDefaultHourlyRate(cfg.Organization.DefaultHourlyRate),
	)
	entrySvc := timeentry.NewService(entryRepo, nil, txManager, lk)
	overtimeSvc := overtime.NewService(overtimeRepo, nil, txManager, lk)
	aggregator := hours.NewAggregator(entryRepo, overtimeRepo, zl.Named("hours"))
	payrollSvc := payroll.NewService(employeeSvc, aggregator)

	timeclock := handler.NewTimeclockGrpcHandler(employeeSvc, entrySvc, overtimeSvc, aggregator, payrollSvc)
	grpcServer := server.New(cfg.Server.ListenAddr, timeclock, zl,
		grpc.ChainUnaryInterceptor(
			interceptor.Metrics(m),
			interceptor.Logging(zl.Named("grpc")),
			interceptor.Auth(identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), server.HealthMethodPrefix),
		),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})

	if cfg.Metrics.ListenAddr != "" {
		metricsServer := metrics.NewServer(cfg.Metrics.ListenAddr, m)
		zl.Info("metrics server listening", zap.String("addr", cfg.Metrics.ListenAddr))
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})
	}

	if cfg.PayrollExport.Schedule != "" {
		exporter := xlsx.NewExporter(cfg.PayrollExport.Dir, payrollSvc, zl, xlsx.WithMetrics(m))
		sched := scheduler.New(zl)
		if err := sched.Add("payroll-export", cfg.PayrollExport.Schedule, exporter.ExportPreviousMonth); err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	return g.Wait()
}

func newLocker(ctx context.Context, cfg *config.Config, zl *zap.Logger) (locker, func(), error) {
	if cfg.Lock.Backend != config.LockBackendRedis {
		return keylock.New(keylock.WithWait(cfg.Lock.Wait)), func() {}, nil
	}

	client, err := redislock.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	zl.Info("using redis lock backend", zap.String("addr", cfg.Redis.Addr))
	return redislock.NewLocker(client, zl, redislock.WithTTL(cfg.Lock.TTL), redislock.WithWait(cfg.Lock.Wait)), func() { _ = client.Close() }, nil
}
