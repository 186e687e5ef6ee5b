package timeentry

import "time"

// Kind は打刻の種別です。
type Kind string

const (
	KindEntrance Kind = "entrance"
	KindExit     Kind = "exit"
)

// IsValidKind は既知の種別かどうかを判定します。
func IsValidKind(k Kind) bool {
	return k == KindEntrance || k == KindExit
}

// Entry は打刻記録です。追記のみで更新・削除はしません。
type Entry struct {
	ID         string
	EmployeeID string
	Kind       Kind
	Timestamp  time.Time
}
