package overtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
	"github.com/ogurasousui/codex-timeclock/internal/core/period"
	"github.com/shopspring/decimal"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Locker はキー単位の排他制御を提供します。
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock(context.Context, string) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// EmployeeLockKey は社員ごとの残業開始・終了を直列化するキーです。
func EmployeeLockKey(employeeID string) string {
	return "overtime:employee:" + employeeID
}

// SessionLockKey はセッションごとの承認操作を直列化するキーです。
func SessionLockKey(sessionID string) string {
	return "overtime:session:" + sessionID
}

// Service は残業セッションと承認ワークフローのユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	locker Locker
}

// UseCase は残業ユースケースの公開インターフェースです。
type UseCase interface {
	StartOvertime(ctx context.Context, employeeID string) (*Session, error)
	EndOvertime(ctx context.Context, employeeID string) (*EndOvertimeResult, error)
	SessionsForEmployee(ctx context.Context, employeeID string) ([]*Session, error)
	PendingSessions(ctx context.Context, act actor.Actor) ([]*Session, error)
	Approve(ctx context.Context, act actor.Actor, sessionID string) (*Session, error)
	Reject(ctx context.Context, act actor.Actor, sessionID string) (*Session, error)
}

// NewService は Service を生成します。locker が nil の場合はプロセス内の単一ロックを使います。
func NewService(repo Repository, clock Clock, tx TransactionManager, locker Locker) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if locker == nil {
		locker = &mutexLocker{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, locker: locker}
}

// EndOvertimeResult は残業終了の結果です。
type EndOvertimeResult struct {
	Session *Session
	Hours   decimal.Decimal
}

// StartOvertime は残業を開始します。当日開始の進行中セッションがあれば ErrSessionAlreadyOpen を返します。
func (s *Service) StartOvertime(ctx context.Context, employeeID string) (*Session, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, EmployeeLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *Session
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		open, err := s.findOpenToday(txCtx, id, now)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrSessionAlreadyOpen
		}

		result, err := s.repo.Create(txCtx, &Session{
			EmployeeID: id,
			StartedAt:  now,
			Status:     StatusPending,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// EndOvertime は当日開始の最新の進行中セッションを終了します。状態は pending のままです。
func (s *Service) EndOvertime(ctx context.Context, employeeID string) (*EndOvertimeResult, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, EmployeeLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *EndOvertimeResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		open, err := s.findOpenToday(txCtx, id, now)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenSession
		}

		closed, err := s.repo.Close(txCtx, open.ID, now)
		if err != nil {
			return err
		}
		result = &EndOvertimeResult{Session: closed, Hours: closed.Hours()}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// SessionsForEmployee は社員の残業セッションを開始時刻の降順で返します。
func (s *Service) SessionsForEmployee(ctx context.Context, employeeID string) ([]*Session, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ListSessionsFilter{EmployeeID: id})
}

// PendingSessions は承認待ちの終了済みセッションを所有者情報付きで返します。管理者のみ実行できます。
func (s *Service) PendingSessions(ctx context.Context, act actor.Actor) ([]*Session, error) {
	if err := act.RequireAdmin(); err != nil {
		return nil, err
	}

	pending := StatusPending
	sessions, err := s.list(ctx, ListSessionsFilter{Status: &pending, ClosedOnly: true, WithOwner: true})
	if err != nil {
		return nil, err
	}

	for _, sess := range sessions {
		if sess.Owner == nil {
			sess.Owner = &OwnerSnapshot{Name: UnknownOwner, Department: UnknownOwner}
		}
	}
	return sessions, nil
}

// Approve はセッションを承認します。
func (s *Service) Approve(ctx context.Context, act actor.Actor, sessionID string) (*Session, error) {
	return s.decide(ctx, act, sessionID, StatusApproved)
}

// Reject はセッションを却下します。
func (s *Service) Reject(ctx context.Context, act actor.Actor, sessionID string) (*Session, error) {
	return s.decide(ctx, act, sessionID, StatusRejected)
}

func (s *Service) decide(ctx context.Context, act actor.Actor, sessionID string, status Status) (*Session, error) {
	if err := act.RequireAdmin(); err != nil {
		return nil, err
	}

	id, err := normalizeID(sessionID, ErrInvalidSessionID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, SessionLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var decided *Session
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		switch {
		case current.EmployeeID == act.EmployeeID:
			return ErrSelfDecision
		case current.IsOpen():
			return ErrSessionStillOpen
		case current.Status != StatusPending:
			return ErrAlreadyDecided
		}

		result, err := s.repo.Decide(txCtx, id, status, act.EmployeeID, s.clock.Now())
		if err != nil {
			return err
		}
		decided = result
		return nil
	}); err != nil {
		return nil, err
	}

	return decided, nil
}

func (s *Service) list(ctx context.Context, filter ListSessionsFilter) ([]*Session, error) {
	var sessions []*Session
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		sessions = found
		return nil
	}); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Service) findOpenToday(ctx context.Context, employeeID string, now time.Time) (*Session, error) {
	from, to := period.Day(now)
	open, err := s.repo.FindLatestOpen(ctx, employeeID, from, to)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return open, nil
}

func normalizeID(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return trimmed, nil
}
