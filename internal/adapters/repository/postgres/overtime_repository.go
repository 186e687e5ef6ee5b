package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	"github.com/ogurasousui/codex-timeclock/internal/core/overtime"
	pgdb "github.com/ogurasousui/codex-timeclock/internal/platform/db/postgres"
)

const (
	sessionColumns      = `s.id, s.employee_id, s.started_at, s.ended_at, s.status, s.decided_by::text, s.decided_at`
	openSessionIndex    = "overtime_sessions_one_open_per_day_idx"
	sessionOwnerColumns = `, e.name, e.department`
)

// OvertimeRepository は PostgreSQL を利用した残業セッションの実装です。
type OvertimeRepository struct {
	pool pgdb.Queryer
}

// NewOvertimeRepository は OvertimeRepository を生成します。
func NewOvertimeRepository(pool pgdb.Queryer) *OvertimeRepository {
	return &OvertimeRepository{pool: pool}
}

// Create は残業セッションを作成します。
func (r *OvertimeRepository) Create(ctx context.Context, session *overtime.Session) (*overtime.Session, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO overtime_sessions AS s (employee_id, started_at, status)
        VALUES ($1, $2, $3)
        RETURNING `+sessionColumns,
		session.EmployeeID,
		session.StartedAt,
		string(session.Status),
	)

	created, err := scanSession(row, false)
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	return created, nil
}

// FindByID は ID でセッションを取得します。
func (r *OvertimeRepository) FindByID(ctx context.Context, id string) (*overtime.Session, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+sessionColumns+`
          FROM overtime_sessions s
         WHERE s.id = $1
         LIMIT 1
    `, id)

	found, err := scanSession(row, false)
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	return found, nil
}

// FindLatestOpen は [from, to) に開始した進行中セッションのうち最新のものを返します。
func (r *OvertimeRepository) FindLatestOpen(ctx context.Context, employeeID string, from, to time.Time) (*overtime.Session, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+sessionColumns+`
          FROM overtime_sessions s
         WHERE s.employee_id = $1
           AND s.ended_at IS NULL
           AND s.started_at >= $2
           AND s.started_at < $3
         ORDER BY s.started_at DESC
         LIMIT 1
    `, employeeID, from, to)

	found, err := scanSession(row, false)
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	return found, nil
}

// Close は進行中のセッションを終了します。
func (r *OvertimeRepository) Close(ctx context.Context, id string, endedAt time.Time) (*overtime.Session, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE overtime_sessions AS s
           SET ended_at = $1
         WHERE s.id = $2
           AND s.ended_at IS NULL
        RETURNING `+sessionColumns,
		endedAt,
		id,
	)

	closed, err := scanSession(row, false)
	if errors.Is(err, overtime.ErrSessionNotFound) {
		return nil, overtime.ErrNoOpenSession
	}
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	return closed, nil
}

// Decide は終了済みかつ pending のセッションのみ承認または却下します。
func (r *OvertimeRepository) Decide(ctx context.Context, id string, status overtime.Status, decidedBy string, decidedAt time.Time) (*overtime.Session, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE overtime_sessions AS s
           SET status = $1,
               decided_by = $2,
               decided_at = $3
         WHERE s.id = $4
           AND s.status = 'pending'
           AND s.ended_at IS NOT NULL
        RETURNING `+sessionColumns,
		string(status),
		decidedBy,
		decidedAt,
		id,
	)

	decided, err := scanSession(row, false)
	if errors.Is(err, overtime.ErrSessionNotFound) {
		return nil, overtime.ErrAlreadyDecided
	}
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	return decided, nil
}

// List はフィルタに一致するセッションを開始時刻の降順で返します。
func (r *OvertimeRepository) List(ctx context.Context, filter overtime.ListSessionsFilter) ([]*overtime.Session, error) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 5)

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, "s.employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "s.status = $"+strconv.Itoa(len(args)))
	}
	if filter.ClosedOnly {
		conditions = append(conditions, "s.ended_at IS NOT NULL")
	}
	if filter.StartedFrom != nil {
		args = append(args, *filter.StartedFrom)
		conditions = append(conditions, "s.started_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.StartedBefore != nil {
		args = append(args, *filter.StartedBefore)
		conditions = append(conditions, "s.started_at < $"+strconv.Itoa(len(args)))
	}

	columns := sessionColumns
	from := `
          FROM overtime_sessions s`
	if filter.WithOwner {
		columns += sessionOwnerColumns
		from += `
          LEFT JOIN employees e ON e.id = s.employee_id`
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = `
         WHERE ` + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT ` + columns + from + whereClause + `
         ORDER BY s.started_at DESC, s.id DESC
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateOvertimePgError(err)
	}
	defer rows.Close()

	sessions := make([]*overtime.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows, filter.WithOwner)
		if err != nil {
			return nil, translateOvertimePgError(err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, translateOvertimePgError(err)
	}

	return sessions, nil
}

func scanSession(row pgx.Row, withOwner bool) (*overtime.Session, error) {
	var (
		id         string
		employeeID string
		startedAt  time.Time
		endedAt    sql.NullTime
		status     string
		decidedBy  sql.NullString
		decidedAt  sql.NullTime
		ownerName  sql.NullString
		ownerDept  sql.NullString
	)

	dest := []any{&id, &employeeID, &startedAt, &endedAt, &status, &decidedBy, &decidedAt}
	if withOwner {
		dest = append(dest, &ownerName, &ownerDept)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, overtime.ErrSessionNotFound
		}
		return nil, err
	}

	sess := &overtime.Session{
		ID:         id,
		EmployeeID: employeeID,
		StartedAt:  startedAt.UTC(),
		EndedAt:    nullableTimePtr(endedAt),
		Status:     overtime.Status(status),
		DecidedBy:  decidedBy.String,
		DecidedAt:  nullableTimePtr(decidedAt),
	}
	if ownerName.Valid {
		sess.Owner = &overtime.OwnerSnapshot{Name: ownerName.String, Department: ownerDept.String}
	}
	return sess, nil
}

func nullableTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func translateOvertimePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return overtime.ErrSessionNotFound
	}
	if fault.KindOf(err) != fault.KindBackingStore {
		return err
	}
	if constraint, ok := pgdb.UniqueViolation(err); ok && constraint == openSessionIndex {
		return overtime.ErrSessionAlreadyOpen
	}
	if _, ok := pgdb.ForeignKeyViolation(err); ok {
		return overtime.ErrEmployeeNotFound
	}
	if pgdb.InvalidTextRepresentation(err) {
		return overtime.ErrSessionNotFound
	}
	return fault.BackingStore(err)
}
