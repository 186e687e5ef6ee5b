package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	pgdb "github.com/ogurasousui/codex-timeclock/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

const employeeColumns = `id, name, email, department, hourly_rate::text, role, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, name, email, department, hourly_rate, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
        RETURNING `+employeeColumns,
		e.ID,
		e.Name,
		e.Email,
		string(e.Department),
		e.HourlyRate.String(),
		string(e.Role),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// UpdateHourlyRate は時給を更新します。
func (r *EmployeeRepository) UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal, updatedAt time.Time) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET hourly_rate = $1::numeric,
               updated_at = $2
         WHERE id = $3
        RETURNING `+employeeColumns,
		rate.String(),
		updatedAt,
		id,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員を名前の昇順で返します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	query := `
        SELECT ` + employeeColumns + `
          FROM employees`
	args := make([]any, 0, 1)
	if filter.Department != nil {
		query += `
         WHERE department = $1`
		args = append(args, string(*filter.Department))
	}
	query += `
         ORDER BY name ASC, id ASC
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

// Count は登録済み社員数を返します。
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return 0, fault.BackingStore(err)
	}
	return count, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id         string
		name       string
		email      string
		department string
		rateText   string
		role       string
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&id, &name, &email, &department, &rateText, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	rate, err := decimal.NewFromString(rateText)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse hourly_rate %q: %w", rateText, err)
	}

	return &employee.Employee{
		ID:         id,
		Name:       name,
		Email:      email,
		Department: employee.Department(department),
		HourlyRate: rate,
		Role:       actor.Role(role),
		CreatedAt:  createdAt.UTC(),
		UpdatedAt:  updatedAt.UTC(),
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}
	if fault.KindOf(err) != fault.KindBackingStore {
		return err
	}

	if constraint, ok := pgdb.UniqueViolation(err); ok {
		if constraint == "employees_email_key" {
			return employee.ErrEmailAlreadyExists
		}
		return employee.ErrEmployeeAlreadyExists
	}

	return fault.BackingStore(err)
}
