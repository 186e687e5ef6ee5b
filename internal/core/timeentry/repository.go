package timeentry

import (
	"context"
	"time"
)

// Repository は打刻記録の永続化の抽象です。
type Repository interface {
	Append(ctx context.Context, entry *Entry) (*Entry, error)
	// ListBetween は [from, to) の打刻を時刻昇順で返します。
	ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Entry, error)
}
