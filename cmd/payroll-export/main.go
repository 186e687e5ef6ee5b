package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/export/xlsx"
	"github.com/ogurasousui/codex-timeclock/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/ogurasousui/codex-timeclock/internal/platform/config"
	pg "github.com/ogurasousui/codex-timeclock/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-timeclock/internal/platform/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		monthFlag  = flag.String("month", "", "month to export as YYYY-MM (defaults to the previous month)")
		dirFlag    = flag.String("dir", "", "output directory (defaults to payroll_export.dir)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(effectiveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	month := period.MonthOf(time.Now()).Previous()
	if *monthFlag != "" {
		month, err = period.ParseMonth(*monthFlag)
		if err != nil {
			zl.Fatal("invalid month", zap.String("month", *monthFlag), zap.Error(err))
		}
	}

	dir := cfg.PayrollExport.Dir
	if *dirFlag != "" {
		dir = *dirFlag
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		zl.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	entryRepo := postgres.NewTimeEntryRepository(dbPool)
	overtimeRepo := postgres.NewOvertimeRepository(dbPool)
	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(dbPool), nil, txManager)
	payrollSvc := payroll.NewService(employeeSvc, hours.NewAggregator(entryRepo, overtimeRepo, zl.Named("hours")))

	path, err := xlsx.NewExporter(dir, payrollSvc, zl).ExportMonth(ctx, month)
	if err != nil {
		zl.Fatal("payroll export failed", zap.Stringer("month", month), zap.Error(err))
	}
	zl.Info("payroll exported", zap.Stringer("month", month), zap.String("path", path))
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}
