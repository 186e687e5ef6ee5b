package xlsx

import (
	"fmt"
	"io"

	"github.com/ogurasousui/codex-timeclock/internal/core/payroll"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Resumo"
	employeeSheet = "Funcionários"
	moneyFormat   = "#,##0.00"
)

var (
	summaryHeaders  = []string{"Departamento", "Funcionários", "Horas normais", "Horas extras", "Pagamento normal", "Pagamento extra", "Total"}
	employeeHeaders = []string{"ID", "Nome", "Departamento", "Valor/hora", "Horas normais", "Horas extras", "Pagamento normal", "Pagamento extra", "Total", "Incompleto"}
)

// WriteReport は給与集計をワークブックとして w に書き出します。
// 部署別の小計シートと社員別の明細シートを持ちます。
func WriteReport(w io.Writer, report *payroll.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("xlsx: create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(employeeSheet); err != nil {
		return fmt.Errorf("xlsx: create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx: delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: ptr(moneyFormat),
	})
	if err != nil {
		return fmt.Errorf("xlsx: total style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(moneyFormat)})
	if err != nil {
		return fmt.Errorf("xlsx: money style: %w", err)
	}

	if err := writeSummary(f, report, headerStyle, totalStyle, moneyStyle); err != nil {
		return err
	}
	if err := writeEmployees(f, report, headerStyle, moneyStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *payroll.Report, headerStyle, totalStyle, moneyStyle int) error {
	if err := f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Folha de pagamento %s", report.Month)); err != nil {
		return err
	}
	if err := writeHeader(f, summarySheet, 2, summaryHeaders, headerStyle); err != nil {
		return err
	}

	row := 3
	for _, dept := range report.Departments {
		if err := writeTotals(f, summarySheet, row, string(dept.Department), dept.Totals); err != nil {
			return err
		}
		if err := styleRange(f, summarySheet, row, 3, 7, moneyStyle); err != nil {
			return err
		}
		row++
	}

	if err := writeTotals(f, summarySheet, row, "Total", report.Total); err != nil {
		return err
	}
	if err := styleRange(f, summarySheet, row, 1, 7, totalStyle); err != nil {
		return err
	}

	return f.SetColWidth(summarySheet, "A", "G", 18)
}

func writeEmployees(f *excelize.File, report *payroll.Report, headerStyle, moneyStyle int) error {
	if err := writeHeader(f, employeeSheet, 1, employeeHeaders, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, dept := range report.Departments {
		for _, line := range dept.Lines {
			degraded := ""
			if line.Degraded {
				degraded = "sim"
			}
			values := []interface{}{
				line.EmployeeID,
				line.Name,
				string(line.Department),
				number(line.HourlyRate),
				number(line.WorkedHours),
				number(line.OvertimeHours),
				number(line.NormalPay),
				number(line.OvertimePay),
				number(line.TotalPay),
				degraded,
			}
			if err := writeRow(f, employeeSheet, row, values); err != nil {
				return err
			}
			if err := styleRange(f, employeeSheet, row, 4, 9, moneyStyle); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(employeeSheet, "A", "A", 38); err != nil {
		return err
	}
	return f.SetColWidth(employeeSheet, "B", "J", 16)
}

func writeTotals(f *excelize.File, sheet string, row int, label string, t payroll.Totals) error {
	return writeRow(f, sheet, row, []interface{}{
		label,
		t.Employees,
		number(t.WorkedHours),
		number(t.OvertimeHours),
		number(t.NormalPay),
		number(t.OvertimePay),
		number(t.TotalPay),
	})
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	return styleRange(f, sheet, row, 1, len(headers), style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &values)
}

func styleRange(f *excelize.File, sheet string, row, fromCol, toCol, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func ptr(s string) *string {
	return &s
}
