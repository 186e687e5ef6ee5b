package employee

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-timeclock/internal/core/actor"
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

// Locker はキー単位の排他制御を提供します。返された関数で解放します。
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

const (
	DefaultEmailDomain = "@flashguyscleaning.com"
	registryLockKey    = "employees:registry"
)

// DefaultHourlyRate は登録時の時給です。
var DefaultHourlyRate = decimal.NewFromInt(25)

// Option は Service の任意設定です。
type Option func(*Service)

// WithLocker は登録処理の排他に用いる Locker を設定します。
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithEmailDomain は登録を許可するメールドメインを設定します。
func WithEmailDomain(domain string) Option {
	return func(s *Service) {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			return
		}
		if !strings.HasPrefix(domain, "@") {
			domain = "@" + domain
		}
		s.emailDomain = domain
	}
}

// WithDefaultHourlyRate は登録時の時給を設定します。
func WithDefaultHourlyRate(rate decimal.Decimal) Option {
	return func(s *Service) {
		if !rate.IsNegative() {
			s.defaultRate = rate
		}
	}
}

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo        Repository
	clock       Clock
	tx          TransactionManager
	locker      Locker
	emailDomain string
	defaultRate decimal.Decimal
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	SetHourlyRate(ctx context.Context, act actor.Actor, in SetHourlyRateInput) (*Employee, error)
	ResolveActor(ctx context.Context, id string) (actor.Actor, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		repo:        repo,
		clock:       clock,
		tx:          tx,
		locker:      &mutexLocker{},
		emailDomain: DefaultEmailDomain,
		defaultRate: DefaultHourlyRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterEmployeeInput は社員登録時の入力です。ID は ID プロバイダの subject です。
type RegisterEmployeeInput struct {
	ID         string
	Name       string
	Email      string
	Department Department
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Department *Department
}

// SetHourlyRateInput は時給変更時の入力です。
type SetHourlyRateInput struct {
	ID   string
	Rate string
}

// RegisterEmployee は社員を登録します。最初の登録者のみ管理者になります。
func (s *Service) RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (*Employee, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	email, err := s.normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if !IsValidDepartment(in.Department) {
		return nil, ErrInvalidDepartment
	}

	unlock, err := s.locker.Lock(ctx, registryLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNotRegistered(txCtx, id, email); err != nil {
			return err
		}

		count, err := s.repo.Count(txCtx)
		if err != nil {
			return err
		}

		role := actor.RoleEmployee
		if count == 0 {
			role = actor.RoleAdmin
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Employee{
			ID:         id,
			Name:       name,
			Email:      email,
			Department: in.Department,
			HourlyRate: s.defaultRate,
			Role:       role,
			CreatedAt:  now,
			UpdatedAt:  now,
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

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	normalized, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, normalized)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員を名前順で取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	if in.Department != nil && !IsValidDepartment(*in.Department) {
		return nil, ErrInvalidDepartment
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, ListEmployeesFilter{Department: in.Department})
		if err != nil {
			return err
		}
		employees = found
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

// SetHourlyRate は社員の時給を変更します。管理者のみ実行できます。
func (s *Service) SetHourlyRate(ctx context.Context, act actor.Actor, in SetHourlyRateInput) (*Employee, error) {
	if err := act.RequireAdmin(); err != nil {
		return nil, err
	}

	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	rate, err := ParseHourlyRate(in.Rate)
	if err != nil {
		return nil, err
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.UpdateHourlyRate(txCtx, id, rate, s.clock.Now())
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// ResolveActor は登録済み社員から操作主体を組み立てます。
func (s *Service) ResolveActor(ctx context.Context, id string) (actor.Actor, error) {
	emp, err := s.GetEmployee(ctx, id)
	if err != nil {
		return actor.Actor{}, err
	}
	return emp.Actor(), nil
}

func (s *Service) ensureNotRegistered(ctx context.Context, id, email string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if existing != nil {
		return ErrEmployeeAlreadyExists
	}

	byEmail, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if byEmail != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *Service) normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}
	if !strings.HasSuffix(email, s.emailDomain) {
		return "", ErrInvalidEmailDomain
	}
	return email, nil
}

// NormalizeID は社員 ID を正規化します。ID は UUID 形式です。
func NormalizeID(raw string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

// 時給は NUMERIC(12,2) 列に保存されます。
const hourlyRateScale = 2

var maxHourlyRate = decimal.New(1, 10)

// ParseHourlyRate は時給文字列を検証して decimal に変換します。
// 小数点以下 2 桁を超える値や列の範囲外の値は拒否します。
func ParseHourlyRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(maxHourlyRate) {
		return decimal.Zero, ErrInvalidHourlyRate
	}
	if !rate.Equal(rate.Truncate(hourlyRateScale)) {
		return decimal.Zero, ErrInvalidHourlyRate
	}
	return rate, nil
}
