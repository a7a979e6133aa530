package xretry

import (
	"context"

	retry "github.com/avast/retry-go/v5"
)

// 以下别名使调用方无需直接依赖 retry-go。
type (
	// Option 是 retry-go 的配置选项类型
	Option = retry.Option

	// DelayContext 提供延迟计算所需的配置值
	DelayContext = retry.DelayContext
)

// retry-go 的配置选项函数
var (
	// Attempts 设置总尝试次数（包含首次尝试），0 表示无限重试。
	Attempts = retry.Attempts

	// UntilSucceeded 无限重试直到成功或被 RetryIf 终止。
	UntilSucceeded = retry.UntilSucceeded

	// DelayType 设置延迟计算函数。
	DelayType = retry.DelayType

	// OnRetry 设置重试回调，n 从 0 开始。
	OnRetry = retry.OnRetry

	// RetryIf 设置重试条件判断函数。
	RetryIf = retry.RetryIf

	// Context 设置上下文。
	Context = retry.Context

	// LastErrorOnly 只返回最后一个错误。
	LastErrorOnly = retry.LastErrorOnly
)

// retry-go 的错误处理函数
var (
	// Unrecoverable 将错误标记为不可恢复（不再重试）。
	Unrecoverable = retry.Unrecoverable

	// IsRecoverable 检查错误是否可恢复。
	IsRecoverable = retry.IsRecoverable
)

// Do 执行带重试的操作，是 retry-go 的薄包装。
//
// 默认 RetryIf 只拦截 Unrecoverable 错误；调用方传入 RetryIf 会覆盖该行为。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	return retry.New(defaultOpts(ctx, opts)...).Do(fn)
}

// DoWithData 执行带重试的操作（有返回值）。
func DoWithData[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](defaultOpts(ctx, opts)...).Do(fn)
}

func defaultOpts(ctx context.Context, opts []Option) []Option {
	all := make([]Option, 0, len(opts)+2)
	all = append(all, Context(ctx), RetryIf(IsRecoverable))
	return append(all, opts...)
}
