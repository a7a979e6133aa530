package xmetrics

import "context"

// Kind 跨度类型
type Kind int

const (
	KindInternal Kind = iota
	KindClient
)

// Status 观测结果
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// SpanOptions 跨度参数
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 跨度结果。Status 为空时由 Err 推导。
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 一次观测
type Span interface {
	End(result Result)
}

// Observer 观测接口
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 空实现
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 空跨度
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 用 observer 开始观测，保证返回非 nil 的 ctx 和 Span。
// observer 为 nil 或返回 nil Span 时使用 [NoopSpan]。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}

func resolveStatus(r Result) Status {
	switch {
	case r.Status != "":
		return r.Status
	case r.Err != nil:
		return StatusError
	default:
		return StatusOK
	}
}
