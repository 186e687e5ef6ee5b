package handler

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/identity"
	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/overtime"
	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/ogurasousui/codex-timeclock/internal/core/timeentry"
	"google.golang.org/protobuf/types/known/structpb"
)

// HoursAggregator は社員の月次集計を提供します。
type HoursAggregator interface {
	MonthlyAggregate(ctx context.Context, employeeID string, month period.Month) hours.MonthlyAggregate
}

// Option は TimeclockGrpcHandler の任意設定です。
type Option func(*TimeclockGrpcHandler)

// WithClock は日付省略時の基準時刻を返す関数を設定します。
func WithClock(now func() time.Time) Option {
	return func(h *TimeclockGrpcHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// TimeclockGrpcHandler は TimeclockService の gRPC 実装です。
// 呼び出し元は認証インターセプタが context に設定した利用者です。
type TimeclockGrpcHandler struct {
	employees employee.UseCase
	entries   timeentry.UseCase
	overtime  overtime.UseCase
	hours     HoursAggregator
	payroll   payroll.UseCase
	now       func() time.Time
}

var _ TimeclockServiceServer = (*TimeclockGrpcHandler)(nil)

// NewTimeclockGrpcHandler は TimeclockGrpcHandler を生成します。
func NewTimeclockGrpcHandler(
	employees employee.UseCase,
	entries timeentry.UseCase,
	overtimeSvc overtime.UseCase,
	aggregator HoursAggregator,
	payrollSvc payroll.UseCase,
	opts ...Option,
) *TimeclockGrpcHandler {
	h := &TimeclockGrpcHandler{
		employees: employees,
		entries:   entries,
		overtime:  overtimeSvc,
		hours:     aggregator,
		payroll:   payrollSvc,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterEmployee は呼び出し元を社員として登録します。ID とメールアドレスはトークンから取得します。
func (h *TimeclockGrpcHandler) RegisterEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	r := newRequest(req)
	name, err := r.requiredString("name")
	if err != nil {
		return nil, toStatusError(err)
	}
	department, err := r.requiredString("department")
	if err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.employees.RegisterEmployee(ctx, employee.RegisterEmployeeInput{
		ID:         user.ID,
		Name:       name,
		Email:      user.Email,
		Department: employee.Department(department),
	})
	if err != nil {
		return respond(nil, err)
	}
	return respond(toEmployeeData(created), nil)
}

// GetEmployee は社員を取得します。他の社員の取得は管理者のみです。
func (h *TimeclockGrpcHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	requested, err := newRequest(req).optionalString("employee_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	id, err := h.targetEmployee(ctx, user, requested)
	if err != nil {
		return respond(nil, err)
	}

	found, err := h.employees.GetEmployee(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(toEmployeeData(found), nil)
}

// ListEmployees は社員一覧を返します。管理者のみ実行できます。
func (h *TimeclockGrpcHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	department, err := newRequest(req).optionalString("department")
	if err != nil {
		return nil, toStatusError(err)
	}

	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}
	if err := act.RequireAdmin(); err != nil {
		return respond(nil, err)
	}

	var in employee.ListEmployeesInput
	if department != nil {
		d := employee.Department(*department)
		in.Department = &d
	}

	employees, err := h.employees.ListEmployees(ctx, in)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{"employees": toEmployeeList(employees)}, nil)
}

// SetHourlyRate は社員の時給を変更します。
func (h *TimeclockGrpcHandler) SetHourlyRate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	r := newRequest(req)
	id, err := r.requiredString("employee_id")
	if err != nil {
		return nil, toStatusError(err)
	}
	rate, err := r.decimalString("hourly_rate")
	if err != nil {
		return nil, toStatusError(err)
	}

	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}

	updated, err := h.employees.SetHourlyRate(ctx, act, employee.SetHourlyRateInput{ID: id, Rate: rate})
	if err != nil {
		return respond(nil, err)
	}
	return respond(toEmployeeData(updated), nil)
}

// StartShift は呼び出し元の入室を打刻します。
func (h *TimeclockGrpcHandler) StartShift(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := h.entries.StartShift(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(toEntryData(*entry), nil)
}

// EndShift は呼び出し元の退室を打刻します。
func (h *TimeclockGrpcHandler) EndShift(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.entries.EndShift(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{
		"entry":    toEntryData(*result.Entry),
		"entrance": toEntryData(result.Entrance),
		"hours":    formatHours(result.Hours),
	}, nil)
}

// DailyEntries は指定日の打刻を返します。date を省略した場合は当日です。
func (h *TimeclockGrpcHandler) DailyEntries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	r := newRequest(req)
	requested, err := r.optionalString("employee_id")
	if err != nil {
		return nil, toStatusError(err)
	}
	rawDate, err := r.optionalString("date")
	if err != nil {
		return nil, toStatusError(err)
	}

	date := h.now()
	if rawDate != nil {
		parsed, err := period.ParseDate(*rawDate)
		if err != nil {
			return respond(nil, err)
		}
		date = parsed
	}

	id, err := h.targetEmployee(ctx, user, requested)
	if err != nil {
		return respond(nil, err)
	}

	entries, err := h.entries.DailyEntries(ctx, id, date)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{"entries": toEntryList(entries)}, nil)
}

// StartOvertime は呼び出し元の残業を開始します。
func (h *TimeclockGrpcHandler) StartOvertime(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	session, err := h.overtime.StartOvertime(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(toSessionData(session), nil)
}

// EndOvertime は呼び出し元の残業を終了します。
func (h *TimeclockGrpcHandler) EndOvertime(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.overtime.EndOvertime(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{
		"session": toSessionData(result.Session),
		"hours":   formatHours(result.Hours),
	}, nil)
}

// ListOvertime は社員の残業セッションを返します。
func (h *TimeclockGrpcHandler) ListOvertime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	requested, err := newRequest(req).optionalString("employee_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	id, err := h.targetEmployee(ctx, user, requested)
	if err != nil {
		return respond(nil, err)
	}

	sessions, err := h.overtime.SessionsForEmployee(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{"sessions": toSessionList(sessions)}, nil)
}

// PendingOvertime は承認待ちのセッションを返します。
func (h *TimeclockGrpcHandler) PendingOvertime(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}

	sessions, err := h.overtime.PendingSessions(ctx, act)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]interface{}{"sessions": toSessionList(sessions)}, nil)
}

// ApproveOvertime はセッションを承認します。
func (h *TimeclockGrpcHandler) ApproveOvertime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.decide(ctx, req, h.overtime.Approve)
}

// RejectOvertime はセッションを却下します。
func (h *TimeclockGrpcHandler) RejectOvertime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.decide(ctx, req, h.overtime.Reject)
}

func (h *TimeclockGrpcHandler) decide(
	ctx context.Context,
	req *structpb.Struct,
	fn func(context.Context, actor.Actor, string) (*overtime.Session, error),
) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	sessionID, err := newRequest(req).requiredString("session_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}

	session, err := fn(ctx, act, sessionID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(toSessionData(session), nil)
}

// MonthlyHours は社員の月次集計を返します。
func (h *TimeclockGrpcHandler) MonthlyHours(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	r := newRequest(req)
	rawMonth, err := r.requiredString("month")
	if err != nil {
		return nil, toStatusError(err)
	}
	requested, err := r.optionalString("employee_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	month, err := period.ParseMonth(rawMonth)
	if err != nil {
		return respond(nil, err)
	}

	id, err := h.targetEmployee(ctx, user, requested)
	if err != nil {
		return respond(nil, err)
	}

	return respond(toAggregateData(h.hours.MonthlyAggregate(ctx, id, month)), nil)
}

// PayrollReport は月次の給与集計を返します。
func (h *TimeclockGrpcHandler) PayrollReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	r := newRequest(req)
	rawMonth, err := r.requiredString("month")
	if err != nil {
		return nil, toStatusError(err)
	}
	department, err := r.optionalString("department")
	if err != nil {
		return nil, toStatusError(err)
	}

	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return respond(nil, err)
	}

	month, err := period.ParseMonth(rawMonth)
	if err != nil {
		return respond(nil, err)
	}

	in := payroll.ReportInput{Month: month}
	if department != nil {
		d := employee.Department(*department)
		in.Department = &d
	}

	report, err := h.payroll.Report(ctx, act, in)
	if err != nil {
		return respond(nil, err)
	}
	return respond(toReportData(report), nil)
}

func currentUser(ctx context.Context) (identity.User, error) {
	user, ok := identity.CurrentUser(ctx)
	if !ok {
		return identity.User{}, toStatusError(identity.ErrTokenMissing)
	}
	return user, nil
}

// targetEmployee は操作対象の社員 ID を返します。本人以外を指定できるのは管理者のみです。
func (h *TimeclockGrpcHandler) targetEmployee(ctx context.Context, user identity.User, requested *string) (string, error) {
	if requested == nil {
		return user.ID, nil
	}

	id, err := employee.NormalizeID(*requested)
	if err != nil {
		return "", err
	}
	if id == user.ID {
		return id, nil
	}

	act, err := h.employees.ResolveActor(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if err := act.RequireAdmin(); err != nil {
		return "", err
	}
	return id, nil
}
