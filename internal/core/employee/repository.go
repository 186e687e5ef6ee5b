package employee

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal, updatedAt time.Time) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, error)
	Count(ctx context.Context) (int, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Department *Department
}
