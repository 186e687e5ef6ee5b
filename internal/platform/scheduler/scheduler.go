package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const stopTimeout = 30 * time.Second

// Job は定期実行される処理です。
type Job func(ctx context.Context) error

// Scheduler は cron 式に従ってジョブを実行します。
type Scheduler struct {
	cron      *cron.Cron
	parser    cron.Parser
	logger    *zap.Logger
	timeout   time.Duration
	mu        sync.RWMutex
	rootCtx   context.Context
	startOnce sync.Once
	stopOnce  sync.Once
}

// Option は Scheduler の任意設定です。
type Option func(*Scheduler)

// WithLocation はスケジュールを評価するタイムゾーンを設定します。既定は UTC です。
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = cron.New(cron.WithLocation(loc))
		}
	}
}

// WithJobTimeout は 1 回の実行に許す時間を設定します。0 は無制限です。
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New は Scheduler を生成します。
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger: logger.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add は name のジョブを spec のスケジュールで登録します。
func (s *Scheduler) Add(name, spec string, job Job) error {
	if job == nil {
		return fmt.Errorf("scheduler: job %s is nil", name)
	}
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("scheduler: parse schedule for %s: %w", name, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.execute(name, job)
	}))
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// Run はコンテキストがキャンセルされるまでスケジューラを動かします。
func (s *Scheduler) Run(ctx context.Context) error {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.rootCtx = ctx
		s.mu.Unlock()
		s.cron.Start()
	})

	<-ctx.Done()
	s.stop()
	return nil
}

func (s *Scheduler) stop() {
	s.stopOnce.Do(func() {
		done := s.cron.Stop()
		select {
		case <-done.Done():
		case <-time.After(stopTimeout):
			s.logger.Warn("timed out waiting for jobs to finish")
		}
	})
}

func (s *Scheduler) execute(name string, job Job) {
	s.mu.RLock()
	ctx := s.rootCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	// 停止時に実行中のジョブを打ち切らない。
	ctx = context.WithoutCancel(ctx)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v", r)
			}
		}()
		runErr = job(ctx)
	}()

	fields := []zap.Field{zap.String("job", name), zap.Duration("duration", time.Since(start))}
	if runErr != nil {
		s.logger.Error("job failed", append(fields, zap.Error(runErr))...)
		return
	}
	s.logger.Info("job finished", fields...)
}
