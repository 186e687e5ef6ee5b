package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	"github.com/ogurasousui/codex-timeclock/internal/core/timeentry"
	pgdb "github.com/ogurasousui/codex-timeclock/internal/platform/db/postgres"
)

// TimeEntryRepository は PostgreSQL を利用した打刻記録の実装です。
type TimeEntryRepository struct {
	pool pgdb.Queryer
}

// NewTimeEntryRepository は TimeEntryRepository を生成します。
func NewTimeEntryRepository(pool pgdb.Queryer) *TimeEntryRepository {
	return &TimeEntryRepository{pool: pool}
}

// Append は打刻を追記します。
func (r *TimeEntryRepository) Append(ctx context.Context, entry *timeentry.Entry) (*timeentry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO time_entries (employee_id, kind, occurred_at)
        VALUES ($1, $2, $3)
        RETURNING id, employee_id, kind, occurred_at
    `, entry.EmployeeID, string(entry.Kind), entry.Timestamp)

	created, err := scanTimeEntry(row)
	if err != nil {
		return nil, translateTimeEntryPgError(err)
	}
	return &created, nil
}

// ListBetween は [from, to) の打刻を時刻昇順で返します。
func (r *TimeEntryRepository) ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]timeentry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, kind, occurred_at
          FROM time_entries
         WHERE employee_id = $1
           AND occurred_at >= $2
           AND occurred_at < $3
         ORDER BY occurred_at ASC, id ASC
    `, employeeID, from, to)
	if err != nil {
		return nil, translateTimeEntryPgError(err)
	}
	defer rows.Close()

	entries := make([]timeentry.Entry, 0)
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, translateTimeEntryPgError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTimeEntryPgError(err)
	}

	return entries, nil
}

func scanTimeEntry(row pgx.Row) (timeentry.Entry, error) {
	var (
		id         string
		employeeID string
		kind       string
		occurredAt time.Time
	)
	if err := row.Scan(&id, &employeeID, &kind, &occurredAt); err != nil {
		return timeentry.Entry{}, err
	}
	return timeentry.Entry{
		ID:         id,
		EmployeeID: employeeID,
		Kind:       timeentry.Kind(kind),
		Timestamp:  occurredAt.UTC(),
	}, nil
}

func translateTimeEntryPgError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := pgdb.ForeignKeyViolation(err); ok {
		return timeentry.ErrEmployeeNotFound
	}
	return fault.BackingStore(err)
}
