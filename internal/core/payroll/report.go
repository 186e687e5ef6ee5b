package payroll

import (
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/shopspring/decimal"
)

// Line は社員 1 人分の給与明細です。
type Line struct {
	EmployeeID    string
	Name          string
	Department    employee.Department
	HourlyRate    decimal.Decimal
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	NormalPay     decimal.Decimal
	OvertimePay   decimal.Decimal
	TotalPay      decimal.Decimal
	Degraded      bool
}

// Totals は明細の合計です。
type Totals struct {
	Employees     int
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	NormalPay     decimal.Decimal
	OvertimePay   decimal.Decimal
	TotalPay      decimal.Decimal
}

func newTotals() Totals {
	return Totals{
		WorkedHours:   decimal.Zero,
		OvertimeHours: decimal.Zero,
		NormalPay:     decimal.Zero,
		OvertimePay:   decimal.Zero,
		TotalPay:      decimal.Zero,
	}
}

func (t Totals) add(l Line) Totals {
	return Totals{
		Employees:     t.Employees + 1,
		WorkedHours:   t.WorkedHours.Add(l.WorkedHours),
		OvertimeHours: t.OvertimeHours.Add(l.OvertimeHours),
		NormalPay:     t.NormalPay.Add(l.NormalPay),
		OvertimePay:   t.OvertimePay.Add(l.OvertimePay),
		TotalPay:      t.TotalPay.Add(l.TotalPay),
	}
}

func (t Totals) merge(o Totals) Totals {
	return Totals{
		Employees:     t.Employees + o.Employees,
		WorkedHours:   t.WorkedHours.Add(o.WorkedHours),
		OvertimeHours: t.OvertimeHours.Add(o.OvertimeHours),
		NormalPay:     t.NormalPay.Add(o.NormalPay),
		OvertimePay:   t.OvertimePay.Add(o.OvertimePay),
		TotalPay:      t.TotalPay.Add(o.TotalPay),
	}
}

// DepartmentSummary は部署ごとの小計です。
type DepartmentSummary struct {
	Department employee.Department
	Totals     Totals
	Lines      []Line
}

// Report は月次の給与集計です。
type Report struct {
	Month       period.Month
	Departments []DepartmentSummary
	Total       Totals
	// Degraded は一部の集計が読み取り失敗により 0 扱いであることを示します。
	Degraded bool
}

// NewLine は集計時間と時給から明細を計算します。残業も同じ時給で計算します。
func NewLine(emp *employee.Employee, worked, overtimeHours decimal.Decimal) Line {
	normalPay := worked.Mul(emp.HourlyRate)
	overtimePay := overtimeHours.Mul(emp.HourlyRate)
	return Line{
		EmployeeID:    emp.ID,
		Name:          emp.Name,
		Department:    emp.Department,
		HourlyRate:    emp.HourlyRate,
		WorkedHours:   worked,
		OvertimeHours: overtimeHours,
		NormalPay:     normalPay,
		OvertimePay:   overtimePay,
		TotalPay:      normalPay.Add(overtimePay),
	}
}

// Build は明細を部署ごとにまとめます。社員のいない部署は出力しません。
func Build(month period.Month, lines []Line) *Report {
	byDept := make(map[employee.Department][]Line, len(lines))
	for _, l := range lines {
		byDept[l.Department] = append(byDept[l.Department], l)
	}

	report := &Report{Month: month, Total: newTotals()}
	for _, dept := range employee.Departments() {
		deptLines := byDept[dept]
		subtotal := newTotals()
		for _, l := range deptLines {
			subtotal = subtotal.add(l)
			if l.Degraded {
				report.Degraded = true
			}
		}
		report.Total = report.Total.merge(subtotal)
		if len(deptLines) == 0 {
			continue
		}
		report.Departments = append(report.Departments, DepartmentSummary{
			Department: dept,
			Totals:     subtotal,
			Lines:      deptLines,
		})
	}
	return report
}
