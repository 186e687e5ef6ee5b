package employee

import (
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/shopspring/decimal"
)

// Department は所属部署です。
type Department string

const (
	DepartmentOperations Department = "Operações"
	DepartmentTech       Department = "Tech"
	DepartmentMarketing  Department = "Marketing"
	DepartmentProduct    Department = "Produto"
	DepartmentData       Department = "Dados"
)

// Departments は集計で用いる部署の一覧を表示順で返します。
func Departments() []Department {
	return []Department{
		DepartmentOperations,
		DepartmentTech,
		DepartmentMarketing,
		DepartmentProduct,
		DepartmentData,
	}
}

// IsValidDepartment は既知の部署かどうかを判定します。
func IsValidDepartment(d Department) bool {
	for _, known := range Departments() {
		if d == known {
			return true
		}
	}
	return false
}

// Employee は社員エンティティです。
type Employee struct {
	ID         string
	Name       string
	Email      string
	Department Department
	HourlyRate decimal.Decimal
	Role       actor.Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Actor は社員を操作主体として返します。
func (e *Employee) Actor() actor.Actor {
	return actor.Actor{EmployeeID: e.ID, Role: e.Role}
}
