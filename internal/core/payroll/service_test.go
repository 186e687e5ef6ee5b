package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/shopspring/decimal"
)

var (
	admin = actor.Actor{EmployeeID: "admin", Role: actor.RoleAdmin}
	march = period.Month{Year: 2025, Month: time.March}
)

type stubLister struct {
	employees []*employee.Employee
	err       error
	lastInput employee.ListEmployeesInput
}

func (s *stubLister) ListEmployees(_ context.Context, in employee.ListEmployeesInput) ([]*employee.Employee, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	var out []*employee.Employee
	for _, e := range s.employees {
		if in.Department != nil && e.Department != *in.Department {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type stubHours struct {
	mu       sync.Mutex
	worked   map[string]string
	overtime map[string]string
	degraded map[string]bool
}

func (s *stubHours) MonthlyAggregate(_ context.Context, employeeID string, month period.Month) hours.MonthlyAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := hours.MonthlyAggregate{EmployeeID: employeeID, Month: month, WorkedHours: decimal.Zero, ApprovedOvertimeHours: decimal.Zero}
	if v, ok := s.worked[employeeID]; ok {
		agg.WorkedHours = decimal.RequireFromString(v)
	}
	if v, ok := s.overtime[employeeID]; ok {
		agg.ApprovedOvertimeHours = decimal.RequireFromString(v)
	}
	agg.Degraded = s.degraded[employeeID]
	return agg
}

func emp(id, name string, dept employee.Department, rate string) *employee.Employee {
	return &employee.Employee{ID: id, Name: name, Department: dept, HourlyRate: decimal.RequireFromString(rate)}
}

func TestService_Report_ScenarioD(t *testing.T) {
	t.Parallel()

	lister := &stubLister{employees: []*employee.Employee{
		emp("e1", "Ana", employee.DepartmentTech, "25"),
		emp("e2", "Bruno", employee.DepartmentTech, "30"),
	}}
	src := &stubHours{worked: map[string]string{"e1": "160", "e2": "160"}}
	svc := NewService(lister, src)

	report, err := svc.Report(context.Background(), admin, ReportInput{Month: march})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if len(report.Departments) != 1 {
		t.Fatalf("expected only Tech department, got %d departments", len(report.Departments))
	}
	tech := report.Departments[0]
	if tech.Department != employee.DepartmentTech || tech.Totals.Employees != 2 {
		t.Fatalf("unexpected department summary: %+v", tech)
	}
	if !tech.Totals.WorkedHours.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("expected 320 normal hours, got %s", tech.Totals.WorkedHours)
	}
	if !tech.Totals.OvertimePay.IsZero() {
		t.Fatalf("expected no overtime pay, got %s", tech.Totals.OvertimePay)
	}
	if !tech.Totals.TotalPay.Equal(decimal.NewFromInt(8800)) {
		t.Fatalf("expected 8800 total pay, got %s", tech.Totals.TotalPay)
	}
	if !report.Total.TotalPay.Equal(decimal.NewFromInt(8800)) || report.Total.Employees != 2 {
		t.Fatalf("unexpected grand total: %+v", report.Total)
	}
	if report.Month != march {
		t.Fatalf("unexpected month: %v", report.Month)
	}
}

func TestService_Report_OvertimeUsesSameRate(t *testing.T) {
	t.Parallel()

	lister := &stubLister{employees: []*employee.Employee{emp("e1", "Ana", employee.DepartmentData, "20")}}
	src := &stubHours{worked: map[string]string{"e1": "10.5"}, overtime: map[string]string{"e1": "1.25"}}
	svc := NewService(lister, src)

	report, err := svc.Report(context.Background(), admin, ReportInput{Month: march})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	line := report.Departments[0].Lines[0]
	if !line.NormalPay.Equal(decimal.NewFromInt(210)) || !line.OvertimePay.Equal(decimal.NewFromInt(25)) || !line.TotalPay.Equal(decimal.NewFromInt(235)) {
		t.Fatalf("unexpected pay: normal=%s overtime=%s total=%s", line.NormalPay, line.OvertimePay, line.TotalPay)
	}
}

func TestService_Report_GroupsAndOrdersDepartments(t *testing.T) {
	t.Parallel()

	lister := &stubLister{employees: []*employee.Employee{
		emp("e1", "Ana", employee.DepartmentData, "10"),
		emp("e2", "Bruno", employee.DepartmentOperations, "10"),
		emp("e3", "Carla", employee.DepartmentData, "10"),
	}}
	src := &stubHours{worked: map[string]string{"e1": "1", "e2": "2", "e3": "3"}}
	svc := NewService(lister, src)

	report, err := svc.Report(context.Background(), admin, ReportInput{Month: march})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if len(report.Departments) != 2 {
		t.Fatalf("expected empty departments to be omitted, got %d", len(report.Departments))
	}
	if report.Departments[0].Department != employee.DepartmentOperations || report.Departments[1].Department != employee.DepartmentData {
		t.Fatalf("unexpected department order: %s, %s", report.Departments[0].Department, report.Departments[1].Department)
	}
	if !report.Departments[1].Totals.NormalPay.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected Data subtotal: %s", report.Departments[1].Totals.NormalPay)
	}
	if !report.Total.WorkedHours.Equal(decimal.NewFromInt(6)) || !report.Total.TotalPay.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected grand total: %+v", report.Total)
	}
}

func TestService_Report_DepartmentFilter(t *testing.T) {
	t.Parallel()

	lister := &stubLister{employees: []*employee.Employee{
		emp("e1", "Ana", employee.DepartmentTech, "10"),
		emp("e2", "Bruno", employee.DepartmentMarketing, "10"),
	}}
	svc := NewService(lister, &stubHours{worked: map[string]string{"e1": "5", "e2": "7"}})

	dept := employee.DepartmentMarketing
	report, err := svc.Report(context.Background(), admin, ReportInput{Month: march, Department: &dept})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if lister.lastInput.Department == nil || *lister.lastInput.Department != dept {
		t.Fatalf("expected department filter to be forwarded")
	}
	if len(report.Departments) != 1 || report.Departments[0].Department != dept {
		t.Fatalf("unexpected departments: %+v", report.Departments)
	}
	if !report.Total.TotalPay.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("unexpected total: %s", report.Total.TotalPay)
	}
}

func TestService_Report_EmptyAndDegraded(t *testing.T) {
	t.Parallel()

	empty, err := NewService(&stubLister{}, &stubHours{}).Report(context.Background(), admin, ReportInput{Month: march})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if len(empty.Departments) != 0 || !empty.Total.TotalPay.IsZero() || empty.Total.Employees != 0 {
		t.Fatalf("expected empty report, got %+v", empty)
	}

	lister := &stubLister{employees: []*employee.Employee{emp("e1", "Ana", employee.DepartmentTech, "10")}}
	degraded, err := NewService(lister, &stubHours{degraded: map[string]bool{"e1": true}}).Report(context.Background(), admin, ReportInput{Month: march})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if !degraded.Degraded || !degraded.Departments[0].Lines[0].Degraded {
		t.Fatalf("expected degraded flag to propagate")
	}
}

func TestService_Report_Errors(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubLister{}, &stubHours{})
	if _, err := svc.Report(context.Background(), actor.Actor{EmployeeID: "e1", Role: actor.RoleEmployee}, ReportInput{Month: march}); !errors.Is(err, actor.ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}

	storeErr := errors.New("relation does not exist")
	svc = NewService(&stubLister{err: storeErr}, &stubHours{})
	if _, err := svc.Report(context.Background(), admin, ReportInput{Month: march}); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
