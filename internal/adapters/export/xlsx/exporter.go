package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/ogurasousui/codex-timeclock/internal/platform/metrics"
	"go.uber.org/zap"
)

// ReportGenerator は権限確認なしで給与集計を行います。
type ReportGenerator interface {
	Generate(ctx context.Context, in payroll.ReportInput) (*payroll.Report, error)
}

// Exporter は給与集計をディレクトリへ書き出します。
type Exporter struct {
	dir     string
	reports ReportGenerator
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option は Exporter の任意設定です。
type Option func(*Exporter)

// WithClock は前月の判定に使う現在時刻を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics は出力結果をメトリクスへ記録します。
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// NewExporter は Exporter を生成します。
func NewExporter(dir string, reports ReportGenerator, logger *zap.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{
		dir:     dir,
		reports: reports,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.Named("payroll_export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileName は月ごとの出力ファイル名を返します。
func FileName(month period.Month) string {
	return fmt.Sprintf("payroll-%s.xlsx", month)
}

// ExportMonth は指定月の給与集計を書き出し、ファイルパスを返します。
func (e *Exporter) ExportMonth(ctx context.Context, month period.Month) (string, error) {
	path, err := e.export(ctx, month)
	e.record(err)
	return path, err
}

// ExportPreviousMonth は前月分を書き出します。定期実行のジョブとして使います。
func (e *Exporter) ExportPreviousMonth(ctx context.Context) error {
	_, err := e.ExportMonth(ctx, period.MonthOf(e.now()).Previous())
	return err
}

func (e *Exporter) export(ctx context.Context, month period.Month) (string, error) {
	report, err := e.reports.Generate(ctx, payroll.ReportInput{Month: month})
	if err != nil {
		return "", fmt.Errorf("xlsx: generate report %s: %w", month, err)
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, report); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("xlsx: create dir %s: %w", e.dir, err)
	}

	path := filepath.Join(e.dir, FileName(month))
	tmp, err := os.CreateTemp(e.dir, ".payroll-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("xlsx: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("xlsx: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("xlsx: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("xlsx: rename to %s: %w", path, err)
	}

	fields := []zap.Field{
		zap.Stringer("month", month),
		zap.String("path", path),
		zap.Int("employees", report.Total.Employees),
		zap.String("total_pay", report.Total.TotalPay.StringFixed(2)),
	}
	if report.Degraded {
		e.logger.Warn("payroll exported with unreadable hours", fields...)
		if e.metrics != nil {
			e.metrics.DegradedReports.Inc()
		}
	} else {
		e.logger.Info("payroll exported", fields...)
	}

	return path, nil
}

func (e *Exporter) record(err error) {
	if e.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	e.metrics.PayrollExports.WithLabelValues(status).Inc()
}
