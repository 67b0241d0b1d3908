// Package retry 提供固定间隔、有限次数的重试
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config 重试配置
type Config struct {
	Attempts int           // 总尝试次数，含首次
	Delay    time.Duration // 两次尝试之间的固定间隔
}

// DefaultConfig 返回默认配置：3 次，间隔 1 秒
func DefaultConfig() Config {
	return Config{Attempts: 3, Delay: time.Second}
}

// Notify 每次失败后回调，attempt 从 1 开始
type Notify func(attempt int, err error)

// Do 执行 op 直到成功、尝试次数耗尽或 ctx 结束
// 返回最后一次的错误；Permanent 包装的错误立即返回
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error, notify Notify) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err != nil && notify != nil {
			notify(attempt, err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.Delay)),
		backoff.WithMaxTries(uint(cfg.Attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}

// Permanent 标记不可重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}
