package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	"github.com/shopspring/decimal"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

var (
	ErrInvalidMonth = fault.New(fault.ErrValidation, "period: invalid month")
	ErrInvalidDate  = fault.New(fault.ErrValidation, "period: invalid date")

	hour = decimal.NewFromInt(int64(time.Hour))
)

// Month は集計対象の年月です。
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth は YYYY-MM 形式の文字列を Month に変換します。
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(raw))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, raw)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf は t が属する UTC の年月を返します。
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// Start は月初 00:00 UTC を返します。
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End は翌月初を返します。区間は [Start, End) です。
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Previous は前月を返します。
func (m Month) Previous() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

// Contains は t が月内かどうかを判定します。
func (m Month) Contains(t time.Time) bool {
	return !t.Before(m.Start()) && t.Before(m.End())
}

func (m Month) String() string {
	return m.Start().Format(monthLayout)
}

// ParseDate は YYYY-MM-DD 形式の文字列を UTC の日付に変換します。
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// Day は t が属する UTC 日の [start, end) を返します。
func Day(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// SameDay は a と b が同じ UTC 日かどうかを判定します。
func SameDay(a, b time.Time) bool {
	start, end := Day(a)
	return !b.Before(start) && b.Before(end)
}

// ElapsedHours は start から end までの時間を小数第 2 位で四捨五入して返します。
// end が start より前の場合は 0 を返します。
func ElapsedHours(start, end time.Time) decimal.Decimal {
	d := end.Sub(start)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d)).Div(hour).Round(2)
}
