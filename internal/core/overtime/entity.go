package overtime

import (
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/shopspring/decimal"
)

// Status は残業申請の承認状態です。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// UnknownOwner は所有者が見つからない場合の表示名です。
const UnknownOwner = "Desconhecido"

// IsValidStatus は既知の状態かどうかを判定します。
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Session は残業セッションです。EndedAt が nil の間は進行中です。
type Session struct {
	ID         string
	EmployeeID string
	StartedAt  time.Time
	EndedAt    *time.Time
	Status     Status
	DecidedBy  string
	DecidedAt  *time.Time
	Owner      *OwnerSnapshot
}

// OwnerSnapshot は承認画面向けの所有者情報です。
type OwnerSnapshot struct {
	Name       string
	Department string
}

// IsOpen は終了していないかどうかを返します。
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// Hours は終了済みセッションの時間を返します。進行中なら 0 です。
func (s *Session) Hours() decimal.Decimal {
	if s.EndedAt == nil {
		return decimal.Zero
	}
	return period.ElapsedHours(s.StartedAt, *s.EndedAt)
}
