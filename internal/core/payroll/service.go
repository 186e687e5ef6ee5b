package payroll

import (
	"context"

	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// EmployeeLister は集計対象の社員を取得します。
type EmployeeLister interface {
	ListEmployees(ctx context.Context, in employee.ListEmployeesInput) ([]*employee.Employee, error)
}

// HoursSource は社員ごとの月次集計を提供します。
type HoursSource interface {
	MonthlyAggregate(ctx context.Context, employeeID string, month period.Month) hours.MonthlyAggregate
}

// Service は給与集計のユースケースです。
type Service struct {
	employees   EmployeeLister
	hours       HoursSource
	concurrency int
}

// UseCase は給与集計の公開インターフェースです。
type UseCase interface {
	Report(ctx context.Context, act actor.Actor, in ReportInput) (*Report, error)
}

// NewService は Service を生成します。
func NewService(employees EmployeeLister, hoursSource HoursSource) *Service {
	return &Service{employees: employees, hours: hoursSource, concurrency: defaultConcurrency}
}

// ReportInput は集計条件です。Department が nil なら全社員が対象です。
type ReportInput struct {
	Month      period.Month
	Department *employee.Department
}

// Report は月次の給与集計を返します。管理者のみ実行できます。
func (s *Service) Report(ctx context.Context, act actor.Actor, in ReportInput) (*Report, error) {
	if err := act.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.Generate(ctx, in)
}

// Generate は権限確認なしで給与集計を行います。定期出力などのシステム処理から利用します。
func (s *Service) Generate(ctx context.Context, in ReportInput) (*Report, error) {
	employees, err := s.employees.ListEmployees(ctx, employee.ListEmployeesInput{Department: in.Department})
	if err != nil {
		return nil, err
	}

	lines := make([]Line, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			agg := s.hours.MonthlyAggregate(gctx, emp.ID, in.Month)
			line := NewLine(emp, agg.WorkedHours, agg.ApprovedOvertimeHours)
			line.Degraded = agg.Degraded
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Build(in.Month, lines), nil
}
