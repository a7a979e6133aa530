package xrecover

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xretry"
)

const component = "xrecover"

// Executor 持有 WithRecovery 的协作者。零值可用：不报告、不观测、不记日志。
type Executor struct {
	reporter xreport.Reporter
	observer xmetrics.Observer
	logger   xlog.Logger
}

// ExecutorOption Executor 配置选项
type ExecutorOption func(*Executor)

// WithReporter 每次失败的报告去向。
func WithReporter(r xreport.Reporter) ExecutorOption {
	return func(e *Executor) {
		e.reporter = r
	}
}

// WithObserver 每次 WithRecovery 调用开启一个 span。
func WithObserver(o xmetrics.Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithLogger 记录被吞掉的报告和 degrade panic。
func WithLogger(l xlog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor 创建 Executor。
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// attemptError 隔离操作返回的错误：retry-go 看不到其中的 Unrecoverable 标记，
// 每个失败都会经过分类和策略。
type attemptError struct {
	err error
}

func (e *attemptError) Error() string { return e.err.Error() }

// WithRecovery 执行 op，按 policy 处理失败。policy 为 nil 时使用 DefaultPolicy，e 为 nil 时使用零值 Executor。
//
// 同一时刻只有一次尝试在执行。op 收到的 ctx 带有操作名和本次尝试序号（xctx.Call）。
// 返回值：
//   - op 成功：其结果
//   - 决策带 fallback：fallback 值和 nil
//   - 决策不重试：最后一次失败的原始错误
//   - ctx 在等待中取消：ctx.Err()
func WithRecovery[T any](ctx context.Context, e *Executor, name string, op func(ctx context.Context) (T, error), policy Policy[T]) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if op == nil {
		return zero, ErrNilOperation
	}
	if e == nil {
		e = &Executor{}
	}
	if policy == nil {
		policy = DefaultPolicy[T]
	}

	ctx, span := xmetrics.Start(ctx, e.observer, xmetrics.SpanOptions{
		Component: component,
		Operation: name,
	})
	r := &recovery[T]{e: e, name: name, op: op, policy: policy}
	v, err := r.run(ctx)

	attrs := []xmetrics.Attr{
		xmetrics.Int("attempts", r.failures+1),
		xmetrics.Bool("fallback", r.fallback != nil),
	}
	if r.failures > 0 {
		attrs = append(attrs, xmetrics.String("category", r.category.String()))
	}
	span.End(xmetrics.Result{Err: err, Attrs: attrs})
	return v, err
}

// recovery 单次 WithRecovery 调用的状态。retry-go 在同一 goroutine 中
// 依次调用 op、RetryIf 和 DelayType，字段无需同步。
type recovery[T any] struct {
	e      *Executor
	name   string
	op     func(ctx context.Context) (T, error)
	policy Policy[T]

	failures int
	category xfault.Category
	last     Decision[T]
	fallback *T
	stopped  bool
}

func (r *recovery[T]) run(ctx context.Context) (T, error) {
	var zero T
	v, err := retry.NewWithData[T](
		xretry.Context(ctx),
		xretry.UntilSucceeded(),
		xretry.LastErrorOnly(true),
		xretry.RetryIf(func(err error) bool {
			return r.onFailure(ctx, err)
		}),
		xretry.DelayType(func(uint, error, xretry.DelayContext) time.Duration {
			return r.last.Delay()
		}),
	).Do(func() (T, error) {
		return r.attempt(ctx)
	})
	if err == nil {
		return v, nil
	}
	if r.fallback != nil {
		return *r.fallback, nil
	}
	var ae *attemptError
	if r.stopped && errors.As(err, &ae) {
		return zero, ae.err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if errors.As(err, &ae) {
		return zero, ae.err
	}
	return zero, err
}

func (r *recovery[T]) attempt(ctx context.Context) (T, error) {
	callCtx, err := xctx.WithCall(ctx, xctx.Call{Operation: r.name, Attempt: r.failures + 1})
	if err != nil {
		callCtx = ctx
	}
	v, err := xfault.CapturePanic(func() (T, error) {
		return r.op(callCtx)
	})
	if err != nil {
		return v, &attemptError{err: err}
	}
	return v, nil
}

// onFailure 分类、决策、报告、degrade，返回是否继续重试。
func (r *recovery[T]) onFailure(ctx context.Context, err error) bool {
	var ae *attemptError
	if errors.As(err, &ae) {
		err = ae.err
	}
	r.failures++
	r.category = xfault.ClassifyError(err)
	d := r.policy(r.category, r.failures)
	r.last = d

	r.e.report(ctx, xreport.Attempt{
		Operation: r.name,
		Category:  r.category,
		Attempt:   r.failures,
		Decision:  d.Summary(),
		Err:       err,
	})
	if d.Degrade != nil {
		r.e.degrade(ctx, r.name, d.Degrade)
	}

	switch {
	case d.Fallback != nil:
		r.fallback = d.Fallback
		r.stopped = true
		return false
	case !d.ShouldRetry:
		r.stopped = true
		return false
	default:
		return true
	}
}

func (e *Executor) report(ctx context.Context, a xreport.Attempt) {
	if e.reporter == nil {
		return
	}
	if !xreport.Safe(ctx, e.reporter, xreport.FromAttempt(a)) && e.logger != nil {
		e.logger.Warn(ctx, "reporter panicked", xlog.Component(component), xlog.Operation(a.Operation))
	}
}

func (e *Executor) degrade(ctx context.Context, name string, fn func()) {
	defer func() {
		if p := recover(); p != nil && e.logger != nil {
			e.logger.Warn(ctx, "degrade hook panicked",
				xlog.Component(component),
				xlog.Operation(name),
				xlog.Err(&xfault.PanicError{Value: p}),
			)
		}
	}()
	fn()
}
