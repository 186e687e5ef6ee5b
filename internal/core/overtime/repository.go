package overtime

import (
	"context"
	"time"
)

// Repository は残業セッション永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, session *Session) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)
	// FindLatestOpen は [from, to) に開始した進行中セッションのうち最新のものを返します。
	FindLatestOpen(ctx context.Context, employeeID string, from, to time.Time) (*Session, error)
	Close(ctx context.Context, id string, endedAt time.Time) (*Session, error)
	// Decide は終了済みかつ pending のセッションのみ更新します。
	Decide(ctx context.Context, id string, status Status, decidedBy string, decidedAt time.Time) (*Session, error)
	List(ctx context.Context, filter ListSessionsFilter) ([]*Session, error)
}

// ListSessionsFilter は一覧取得用フィルタです。結果は開始時刻の降順です。
type ListSessionsFilter struct {
	EmployeeID    string
	Status        *Status
	ClosedOnly    bool
	StartedFrom   *time.Time
	StartedBefore *time.Time
	WithOwner     bool
}
