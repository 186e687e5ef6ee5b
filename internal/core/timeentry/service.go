package timeentry

import (
	"context"
	"strings"
	"sync"
	"time"

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

// LockKey は社員ごとの打刻操作を直列化するためのキーです。
func LockKey(employeeID string) string {
	return "timeentry:" + employeeID
}

// Service は打刻台帳のユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	locker Locker
}

// UseCase は打刻ユースケースの公開インターフェースです。
type UseCase interface {
	StartShift(ctx context.Context, employeeID string) (*Entry, error)
	EndShift(ctx context.Context, employeeID string) (*EndShiftResult, error)
	DailyEntries(ctx context.Context, employeeID string, date time.Time) ([]Entry, error)
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

// EndShiftResult は退室打刻の結果です。
type EndShiftResult struct {
	Entry    *Entry
	Entrance Entry
	Hours    decimal.Decimal
}

// StartShift は入室を打刻します。当日に退室していない入室があれば ErrShiftAlreadyOpen を返します。
func (s *Service) StartShift(ctx context.Context, employeeID string) (*Entry, error) {
	id, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *Entry
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		pairing, err := s.today(txCtx, id, now)
		if err != nil {
			return err
		}
		if pairing.Open != nil {
			return ErrShiftAlreadyOpen
		}

		result, err := s.repo.Append(txCtx, &Entry{EmployeeID: id, Kind: KindEntrance, Timestamp: now})
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

// EndShift は退室を打刻し、対応する入室からの勤務時間を返します。
func (s *Service) EndShift(ctx context.Context, employeeID string) (*EndShiftResult, error) {
	id, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, LockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *EndShiftResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		pairing, err := s.today(txCtx, id, now)
		if err != nil {
			return err
		}
		if pairing.Open == nil {
			return ErrNoOpenShift
		}

		exit, err := s.repo.Append(txCtx, &Entry{EmployeeID: id, Kind: KindExit, Timestamp: now})
		if err != nil {
			return err
		}

		result = &EndShiftResult{
			Entry:    exit,
			Entrance: *pairing.Open,
			Hours:    period.ElapsedHours(pairing.Open.Timestamp, exit.Timestamp),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// DailyEntries は指定日の打刻を時刻昇順で返します。
func (s *Service) DailyEntries(ctx context.Context, employeeID string, date time.Time) ([]Entry, error) {
	id, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	from, to := period.Day(date)

	var entries []Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.ListBetween(txCtx, id, from, to)
		if err != nil {
			return err
		}
		entries = found
		return nil
	}); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *Service) today(ctx context.Context, employeeID string, now time.Time) (Pairing, error) {
	from, to := period.Day(now)
	entries, err := s.repo.ListBetween(ctx, employeeID, from, to)
	if err != nil {
		return Pairing{}, err
	}
	return Pair(entries), nil
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}
