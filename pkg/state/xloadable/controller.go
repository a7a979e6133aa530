package xloadable

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/omeyang/xloadkit/internal/notify"
	"github.com/omeyang/xloadkit/pkg/context/xctx"
	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xretry"
)

const component = "xloadable"

// Option Controller 配置选项
type Option func(*options)

type options struct {
	seed     any
	reporter xreport.Reporter
	observer xmetrics.Observer
	logger   xlog.Logger
	defaults []LoadOption
	now      func() time.Time
}

// WithSeed 以 ready(data) 作为初始状态。data 的类型必须与 Controller 的类型参数一致，否则忽略。
func WithSeed[T any](data T) Option {
	return func(o *options) { o.seed = data }
}

// WithReporter 错误状态的报告去向，默认不报告。
func WithReporter(r xreport.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithObserver 每次 Load 开启一个 span。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger 记录重试过程。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDefaults 所有 Load 调用的默认 LoadOption，调用时传入的选项优先。
func WithDefaults(opts ...LoadOption) Option {
	return func(o *options) { o.defaults = append(o.defaults, opts...) }
}

// withClock 替换时间来源，仅用于测试。
func withClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Controller 单个资源的加载状态机。
type Controller[T any] struct {
	state atomic.Pointer[State[T]]
	hub   notify.Hub[State[T]]

	reporter xreport.Reporter
	observer xmetrics.Observer
	logger   xlog.Logger
	defaults []LoadOption
	now      func() time.Time
}

// New 创建 Controller，初始状态为 idle（或 WithSeed 给出的 ready）。
func New[T any](opts ...Option) *Controller[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Controller[T]{
		reporter: o.reporter,
		observer: o.observer,
		logger:   o.logger,
		defaults: o.defaults,
		now:      o.now,
	}
	initial := idleState[T]()
	if seed, ok := o.seed.(T); ok && o.seed != nil {
		initial = readyState(seed)
	}
	c.state.Store(&initial)
	return c
}

// State 返回当前快照。
func (c *Controller[T]) State() State[T] {
	return *c.state.Load()
}

// Subscribe 立即以当前快照调用 fn，之后每次状态变化按顺序同步调用。
// fn 不能在回调中同步修改同一 Controller。返回幂等的取消函数。
func (c *Controller[T]) Subscribe(fn func(State[T])) (cancel func()) {
	return c.hub.Subscribe(c.State, fn)
}

func (c *Controller[T]) transition(next func(prev State[T]) State[T]) State[T] {
	var out State[T]
	c.hub.Publish(func() State[T] {
		out = next(*c.state.Load())
		c.state.Store(&out)
		return out
	})
	return out
}

// Reset 不带参数时回到 idle，否则以 data[0] 进入 ready，清除错误和时间戳。
func (c *Controller[T]) Reset(data ...T) {
	c.transition(func(State[T]) State[T] {
		if len(data) == 0 {
			return idleState[T]()
		}
		return readyState(data[0])
	})
}

// SetData 直接进入 ready，用于外部推送的更新（如实时同步），不经过加载流程。
func (c *Controller[T]) SetData(data T) {
	c.transition(func(prev State[T]) State[T] {
		s := readyState(data)
		s.StartedAt = prev.StartedAt
		s.FinishedAt = c.now()
		return s
	})
}

// SetError 进入 error 并报告 info，保留已有数据供界面继续展示。
// info 为 nil 时记录一个未知错误。
func (c *Controller[T]) SetError(ctx context.Context, info *xreport.ErrorInfo) {
	if info == nil {
		info = xreport.NewErrorInfo("", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	xreport.Safe(ctx, c.reporter, info)
	c.transition(func(prev State[T]) State[T] {
		return State[T]{
			Status:     StatusError,
			Data:       prev.Data,
			HasData:    prev.HasData,
			Err:        info,
			StartedAt:  prev.StartedAt,
			FinishedAt: c.now(),
		}
	})
}

func (c *Controller[T]) config(opts []LoadOption) loadConfig {
	cfg := defaultLoadConfig()
	for _, opt := range c.defaults {
		opt(&cfg)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Load 执行一次 run，不重试。
//
// 进入 loading 后执行 run。成功时先补足最短加载时间，再等待稳定延迟，然后进入 ready；
// 等待期间 ctx 结束则立即进入 ready。失败时通过 SetError 进入 error 并返回原始错误。
// run 的 panic 被转换为 *xfault.PanicError。
func (c *Controller[T]) Load(ctx context.Context, run func(ctx context.Context) (T, error), opts ...LoadOption) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if run == nil {
		return zero, ErrNilFunc
	}
	return c.load(ctx, run, c.config(opts))
}

func (c *Controller[T]) load(ctx context.Context, run func(ctx context.Context) (T, error), cfg loadConfig) (T, error) {
	var zero T
	start := c.now()
	c.transition(func(State[T]) State[T] {
		return State[T]{Status: StatusLoading, StartedAt: start}
	})

	ctx, span := xmetrics.Start(ctx, c.observer, xmetrics.SpanOptions{
		Component: component,
		Operation: cfg.name,
	})
	runCtx := ctx
	if cfg.name != "" {
		if named, err := xctx.WithOperation(ctx, cfg.name); err == nil {
			runCtx = named
		}
	}

	v, err := xfault.CapturePanic(func() (T, error) {
		return run(runCtx)
	})
	if err != nil {
		c.SetError(ctx, xreport.NewErrorInfo(cfg.name, err, xreport.WithCode(xreport.CodeLive)))
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{
			xmetrics.String("category", xfault.ClassifyError(err).String()),
		}})
		return zero, err
	}

	if remaining := cfg.minLoading - c.now().Sub(start); remaining > 0 {
		sleep(ctx, remaining)
	}
	if cfg.successDelay > 0 {
		sleep(ctx, cfg.successDelay)
	}
	c.transition(func(State[T]) State[T] {
		s := readyState(v)
		s.StartedAt = start
		s.FinishedAt = c.now()
		return s
	})
	span.End(xmetrics.Result{})
	return v, nil
}

// LoadWithRetry 重复调用 Load，直到成功或执行次数达到 WithAttempts。
//
// 两次执行之间按封顶指数退避等待（WithInitialDelay、WithBackoffFactor、WithMaxDelay、WithJitter），
// 等待期间状态保持 error。次数耗尽时返回最后一次失败；等待中 ctx 结束时返回 ctx.Err()。
func (c *Controller[T]) LoadWithRetry(ctx context.Context, run func(ctx context.Context) (T, error), opts ...LoadOption) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if run == nil {
		return zero, ErrNilFunc
	}
	cfg := c.config(opts)
	// 每次 Load 都经过分类和报告，这里只负责退避
	v, err := xretry.RetryWithData(ctx, func(ctx context.Context) (T, error) {
		v, err := c.load(ctx, run, cfg)
		if err != nil {
			// 隔离 run 返回的 Unrecoverable 标记，次数只由 attempts 决定
			return v, &loadError{err: err}
		}
		return v, nil
	}, cfg.attempts, cfg.initialDelay,
		xretry.WithBackoff(cfg.backoff()),
		xretry.WithOnRetry(func(attempt int, err error) {
			c.logRetry(ctx, cfg, attempt, err)
		}),
	)
	var le *loadError
	if errors.As(err, &le) {
		return zero, le.err
	}
	return v, err
}

type loadError struct {
	err error
}

func (e *loadError) Error() string { return e.err.Error() }

func (c *Controller[T]) logRetry(ctx context.Context, cfg loadConfig, attempt int, err error) {
	if c.logger == nil {
		return
	}
	var le *loadError
	if errors.As(err, &le) {
		err = le.err
	}
	msg := "load failed, retrying"
	if attempt >= cfg.attempts {
		msg = "load failed, attempts exhausted"
	}
	c.logger.Warn(ctx, msg,
		xlog.Component(component),
		xlog.Operation(cfg.name),
		xlog.Attempt(attempt),
		xlog.Category(xfault.ClassifyError(err).String()),
		xlog.Err(err),
	)
}

// sleep 等待 d 或 ctx 结束。
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
