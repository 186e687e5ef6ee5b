package handler

import (
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	"github.com/ogurasousui/codex-timeclock/internal/core/hours"
	"github.com/ogurasousui/codex-timeclock/internal/core/overtime"
	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/ogurasousui/codex-timeclock/internal/core/timeentry"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// respond は結果をエンベロープ {success, kind, message, data} に変換します。
func respond(data interface{}, err error) (*structpb.Struct, error) {
	result := fault.From(data, err)
	envelope := map[string]interface{}{"success": result.Success}
	if result.Success {
		if result.Data != nil {
			envelope["data"] = result.Data
		}
	} else {
		envelope["kind"] = string(result.Kind)
		envelope["message"] = result.Message
	}

	out, convErr := structpb.NewStruct(envelope)
	if convErr != nil {
		return nil, toStatusError(convErr)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatHours(d decimal.Decimal) string {
	return d.String()
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toEmployeeData(e *employee.Employee) map[string]interface{} {
	return map[string]interface{}{
		"id":          e.ID,
		"name":        e.Name,
		"email":       e.Email,
		"department":  string(e.Department),
		"hourly_rate": formatMoney(e.HourlyRate),
		"role":        string(e.Role),
		"created_at":  formatTime(e.CreatedAt),
		"updated_at":  formatTime(e.UpdatedAt),
	}
}

func toEmployeeList(employees []*employee.Employee) []interface{} {
	list := make([]interface{}, 0, len(employees))
	for _, e := range employees {
		list = append(list, toEmployeeData(e))
	}
	return list
}

func toEntryData(e timeentry.Entry) map[string]interface{} {
	return map[string]interface{}{
		"id":          e.ID,
		"employee_id": e.EmployeeID,
		"kind":        string(e.Kind),
		"timestamp":   formatTime(e.Timestamp),
	}
}

func toEntryList(entries []timeentry.Entry) []interface{} {
	list := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		list = append(list, toEntryData(e))
	}
	return list
}

func toSessionData(s *overtime.Session) map[string]interface{} {
	data := map[string]interface{}{
		"id":          s.ID,
		"employee_id": s.EmployeeID,
		"started_at":  formatTime(s.StartedAt),
		"ended_at":    formatTimePtr(s.EndedAt),
		"status":      string(s.Status),
		"hours":       formatHours(s.Hours()),
		"decided_at":  formatTimePtr(s.DecidedAt),
	}
	if s.DecidedBy != "" {
		data["decided_by"] = s.DecidedBy
	} else {
		data["decided_by"] = nil
	}
	if s.Owner != nil {
		data["owner"] = map[string]interface{}{
			"name":       s.Owner.Name,
			"department": s.Owner.Department,
		}
	}
	return data
}

func toSessionList(sessions []*overtime.Session) []interface{} {
	list := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, toSessionData(s))
	}
	return list
}

func toAggregateData(a hours.MonthlyAggregate) map[string]interface{} {
	return map[string]interface{}{
		"employee_id":             a.EmployeeID,
		"month":                   a.Month.String(),
		"worked_hours":            formatHours(a.WorkedHours),
		"approved_overtime_hours": formatHours(a.ApprovedOvertimeHours),
		"degraded":                a.Degraded,
	}
}

func toTotalsData(t payroll.Totals) map[string]interface{} {
	return map[string]interface{}{
		"employees":      t.Employees,
		"worked_hours":   formatHours(t.WorkedHours),
		"overtime_hours": formatHours(t.OvertimeHours),
		"normal_pay":     formatMoney(t.NormalPay),
		"overtime_pay":   formatMoney(t.OvertimePay),
		"total_pay":      formatMoney(t.TotalPay),
	}
}

func toLineData(l payroll.Line) map[string]interface{} {
	return map[string]interface{}{
		"employee_id":    l.EmployeeID,
		"name":           l.Name,
		"department":     string(l.Department),
		"hourly_rate":    formatMoney(l.HourlyRate),
		"worked_hours":   formatHours(l.WorkedHours),
		"overtime_hours": formatHours(l.OvertimeHours),
		"normal_pay":     formatMoney(l.NormalPay),
		"overtime_pay":   formatMoney(l.OvertimePay),
		"total_pay":      formatMoney(l.TotalPay),
		"degraded":       l.Degraded,
	}
}

func toReportData(r *payroll.Report) map[string]interface{} {
	departments := make([]interface{}, 0, len(r.Departments))
	for _, d := range r.Departments {
		lines := make([]interface{}, 0, len(d.Lines))
		for _, l := range d.Lines {
			lines = append(lines, toLineData(l))
		}
		departments = append(departments, map[string]interface{}{
			"department": string(d.Department),
			"totals":     toTotalsData(d.Totals),
			"lines":      lines,
		})
	}
	return map[string]interface{}{
		"month":       r.Month.String(),
		"departments": departments,
		"total":       toTotalsData(r.Total),
		"degraded":    r.Degraded,
	}
}
