package actor

import "github.com/ogurasousui/codex-timeclock/internal/core/fault"

// Role は利用者の権限です。
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

var ErrAdminRequired = fault.New(fault.ErrPermissionDenied, "actor: admin role required")

// Actor は操作を行う利用者を表します。各ユースケースへ明示的に渡します。
type Actor struct {
	EmployeeID string
	Role       Role
}

// IsAdmin は管理者かどうかを返します。
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAdmin は管理者でなければ ErrAdminRequired を返します。
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// IsValidRole は既知の権限かどうかを判定します。
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	default:
		return false
	}
}
