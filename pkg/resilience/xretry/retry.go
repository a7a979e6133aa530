package xretry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// MaxRetryDelay Retry 使用的退避上限
const MaxRetryDelay = 3 * time.Second

// retryConfig Retry 的可选配置
type retryConfig struct {
	backoff Backoff
	onRetry func(attempt int, err error)
	retryIf func(err error) bool
}

// RetryOption Retry 配置选项
type RetryOption func(*retryConfig)

// WithBackoff 替换默认的指数退避（initial, x2, 上限 3s, 抖动）。
// 传入 nil 会被忽略。
func WithBackoff(b Backoff) RetryOption {
	return func(c *retryConfig) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithOnRetry 设置失败回调，attempt 从 1 开始。
// 最后一次失败同样会触发回调。
func WithOnRetry(fn func(attempt int, err error)) RetryOption {
	return func(c *retryConfig) {
		if fn != nil {
			c.onRetry = fn
		}
	}
}

// WithRetryIf 设置附加的重试条件，返回 false 时立即返回该错误。
func WithRetryIf(fn func(err error) bool) RetryOption {
	return func(c *retryConfig) {
		if fn != nil {
			c.retryIf = fn
		}
	}
}

// Retry 最多执行 fn attempts 次，两次执行之间按指数退避等待。
//
// 默认退避从 initialDelay 开始每次翻倍，上限 [MaxRetryDelay]，
// 并施加 ±min(30%, 200ms) 的扩散抖动。次数耗尽后返回最后一次的错误。
// ctx 取消时立即返回 ctx 的错误。
func Retry(ctx context.Context, fn func(ctx context.Context) error, attempts int, initialDelay time.Duration, opts ...RetryOption) error {
	if fn == nil {
		return ErrNilFunc
	}
	_, err := RetryWithData(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attempts, initialDelay, opts...)
	return err
}

// RetryWithData 与 Retry 相同，但返回 fn 成功时的结果。
func RetryWithData[T any](ctx context.Context, fn func(ctx context.Context) (T, error), attempts int, initialDelay time.Duration, opts ...RetryOption) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if attempts < 1 {
		return zero, ErrInvalidAttempts
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	cfg := &retryConfig{
		backoff: NewExponentialBackoff(
			WithInitialDelay(initialDelay),
			WithMaxDelay(MaxRetryDelay),
			WithFactor(2),
		),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	v, err := retry.NewWithData[T](buildOptions(ctx, cfg, attempts)...).Do(func() (T, error) {
		return fn(ctx)
	})
	if err != nil && ctx.Err() != nil {
		return zero, ctx.Err()
	}
	return v, err
}

func buildOptions(ctx context.Context, cfg *retryConfig, attempts int) []Option {
	opts := make([]Option, 0, 5)
	opts = append(opts, Context(ctx), Attempts(safeIntToUint(attempts)))

	// failures 为已失败次数（1-based），与 OnRetry 回调的 attempt 一致
	var failures atomic.Int64
	opts = append(opts, RetryIf(func(err error) bool {
		n := int(failures.Add(1))
		if cfg.onRetry != nil {
			cfg.onRetry(n, err)
		}
		if !IsRecoverable(err) {
			return false
		}
		if cfg.retryIf != nil && !cfg.retryIf(err) {
			return false
		}
		return true
	}))

	// retry-go v5 中 DelayType 的 n 从 1 开始
	opts = append(opts, DelayType(func(n uint, _ error, _ DelayContext) time.Duration {
		return cfg.backoff.NextDelay(safeUintToInt(n))
	}))

	return append(opts, LastErrorOnly(true))
}

func safeIntToUint(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}

func safeUintToInt(v uint) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
