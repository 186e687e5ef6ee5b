package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix            = "timeclock:lock:"
	defaultTTL           = 10 * time.Second
	defaultRetryInterval = 25 * time.Millisecond
	defaultWait          = 5 * time.Second
	releaseTimeout       = 2 * time.Second
)

// ErrLockTimeout は待機上限までにロックを取得できなかったことを表します。
var ErrLockTimeout = fault.New(fault.ErrConflict, "lock: another operation is in progress, try again")

// 自分が取得したロックのみ削除する。
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// Client はロックに必要な Redis コマンドです。*goredis.Client が満たします。
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// Locker は Redis を用いたキー単位の分散ロックです。
type Locker struct {
	client        Client
	ttl           time.Duration
	retryInterval time.Duration
	wait          time.Duration
	logger        *zap.Logger
}

// Option は Locker の任意設定です。
type Option func(*Locker)

// WithTTL はロックの有効期限を設定します。保持者が異常終了した場合もこの時間で解放されます。
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval は取得を再試行する間隔を設定します。
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithWait はロック取得を待つ上限を設定します。
func WithWait(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.wait = d
		}
	}
}

// NewLocker は Locker を生成します。
func NewLocker(client Client, logger *zap.Logger, opts ...Option) *Locker {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Locker{
		client:        client,
		ttl:           defaultTTL,
		retryInterval: defaultRetryInterval,
		wait:          defaultWait,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock は key のロックを取得するまで待ちます。待機上限を過ぎた場合は ErrLockTimeout を、
// 先に ctx が終了した場合は ctx.Err() を返します。
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, l.waitError(ctx)
			}
			return nil, fault.BackingStore(fmt.Errorf("redis lock %s: %w", key, err))
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}

		select {
		case <-waitCtx.Done():
			return nil, l.waitError(ctx)
		case <-ticker.C:
		}
	}
}

func (l *Locker) waitError(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrLockTimeout
}

func (l *Locker) releaser(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.logger.Warn("failed to release redis lock", zap.String("key", redisKey), zap.Error(err))
		}
	}
}
