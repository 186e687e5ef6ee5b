package keylock

import (
	"context"
	"sync"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
)

// DefaultWait はロック取得を待つ既定の上限です。
const DefaultWait = 5 * time.Second

// ErrLockTimeout は待機上限までにロックを取得できなかったことを表します。
var ErrLockTimeout = fault.New(fault.ErrConflict, "lock: another operation is in progress, try again")

type entry struct {
	sem  chan struct{}
	refs int
}

// Map はキーごとの排他ロックをプロセス内で提供します。使われていないキーは保持しません。
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
	wait  time.Duration
}

// Option は Map の任意設定です。
type Option func(*Map)

// WithWait はロック取得を待つ上限を設定します。
func WithWait(d time.Duration) Option {
	return func(m *Map) {
		if d > 0 {
			m.wait = d
		}
	}
}

// New は Map を生成します。
func New(opts ...Option) *Map {
	m := &Map{locks: make(map[string]*entry), wait: DefaultWait}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lock は key のロックを取得します。待機上限を過ぎた場合は ErrLockTimeout を、
// 先に ctx が終了した場合は ctx.Err() を返します。
func (m *Map) Lock(ctx context.Context, key string) (func(), error) {
	e := m.acquire(key)

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	case <-timer.C:
		m.release(key, e)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.release(key, e)
		})
	}, nil
}

func (m *Map) acquire(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *Map) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

// Len は保持しているキーの数を返します。
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
