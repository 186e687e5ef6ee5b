package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/platform/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient は Redis へ接続し疎通確認を行います。
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	return rdb, nil
}
