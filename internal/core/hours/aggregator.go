package hours

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/overtime"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/ogurasousui/codex-timeclock/internal/core/timeentry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EntryReader は打刻台帳の読み取り口です。
type EntryReader interface {
	ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]timeentry.Entry, error)
}

// SessionReader は残業セッションの読み取り口です。
type SessionReader interface {
	List(ctx context.Context, filter overtime.ListSessionsFilter) ([]*overtime.Session, error)
}

// MonthlyAggregate は社員の月次集計です。保存せず都度台帳から再計算します。
type MonthlyAggregate struct {
	EmployeeID            string
	Month                 period.Month
	WorkedHours           decimal.Decimal
	ApprovedOvertimeHours decimal.Decimal
	// Degraded は読み取りに失敗し 0 として扱った値を含むことを示します。
	Degraded bool
}

// Aggregator は月次の勤務時間と承認済み残業時間を集計します。
type Aggregator struct {
	entries  EntryReader
	sessions SessionReader
	logger   *zap.Logger
}

// NewAggregator は Aggregator を生成します。
func NewAggregator(entries EntryReader, sessions SessionReader, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{entries: entries, sessions: sessions, logger: logger}
}

// MonthlyWorkedHours は月内で閉じた入退室の組ごとに丸めた時間の合計を返します。
// 読み取りに失敗した場合は 0 を返します。
func (a *Aggregator) MonthlyWorkedHours(ctx context.Context, employeeID string, month period.Month) decimal.Decimal {
	hours, _ := a.workedHours(ctx, employeeID, month)
	return hours
}

// MonthlyApprovedOvertimeHours は月内に開始し承認済みで終了したセッションの時間の合計を返します。
// 読み取りに失敗した場合は 0 を返します。
func (a *Aggregator) MonthlyApprovedOvertimeHours(ctx context.Context, employeeID string, month period.Month) decimal.Decimal {
	hours, _ := a.approvedOvertimeHours(ctx, employeeID, month)
	return hours
}

// MonthlyAggregate は両方の集計をまとめて返します。
func (a *Aggregator) MonthlyAggregate(ctx context.Context, employeeID string, month period.Month) MonthlyAggregate {
	worked, workedOK := a.workedHours(ctx, employeeID, month)
	overtimeHours, overtimeOK := a.approvedOvertimeHours(ctx, employeeID, month)
	return MonthlyAggregate{
		EmployeeID:            employeeID,
		Month:                 month,
		WorkedHours:           worked,
		ApprovedOvertimeHours: overtimeHours,
		Degraded:              !workedOK || !overtimeOK,
	}
}

func (a *Aggregator) workedHours(ctx context.Context, employeeID string, month period.Month) (decimal.Decimal, bool) {
	entries, err := a.entries.ListBetween(ctx, employeeID, month.Start(), month.End())
	if err != nil {
		a.logger.Warn("monthly worked hours unavailable",
			zap.String("employee_id", employeeID),
			zap.Stringer("month", month),
			zap.Error(err),
		)
		return decimal.Zero, false
	}
	return timeentry.Pair(entries).TotalHours(), true
}

func (a *Aggregator) approvedOvertimeHours(ctx context.Context, employeeID string, month period.Month) (decimal.Decimal, bool) {
	approved := overtime.StatusApproved
	from, before := month.Start(), month.End()
	sessions, err := a.sessions.List(ctx, overtime.ListSessionsFilter{
		EmployeeID:    employeeID,
		Status:        &approved,
		ClosedOnly:    true,
		StartedFrom:   &from,
		StartedBefore: &before,
	})
	if err != nil {
		a.logger.Warn("monthly overtime hours unavailable",
			zap.String("employee_id", employeeID),
			zap.Stringer("month", month),
			zap.Error(err),
		)
		return decimal.Zero, false
	}

	total := decimal.Zero
	for _, s := range sessions {
		if s.Status != overtime.StatusApproved || s.IsOpen() || !month.Contains(s.StartedAt) {
			continue
		}
		total = total.Add(s.Hours())
	}
	return total, true
}
