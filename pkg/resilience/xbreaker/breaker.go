package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// 默认配置
const (
	DefaultThreshold   = 5
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRequests = 1
)

// TripPolicy 熔断判定策略，ReadyToTrip 返回 true 时 Closed 转为 Open。
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// SuccessPolicy 判定一次执行结果是否计为成功。
type SuccessPolicy interface {
	IsSuccessful(err error) bool
}

// SuccessFunc 函数形式的 SuccessPolicy
type SuccessFunc func(err error) bool

// IsSuccessful 实现 SuccessPolicy。
func (f SuccessFunc) IsSuccessful(err error) bool { return f(err) }

// Breaker 熔断器
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	successPolicy SuccessPolicy
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithTripPolicy 熔断判定策略，默认连续失败 5 次。
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithSuccessPolicy 成功判定策略，默认 [TransientOnly]。
func WithSuccessPolicy(p SuccessPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.successPolicy = p
		}
	}
}

// WithTimeout Open 状态持续多久后进入 HalfOpen。
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval Closed 状态下清零统计的周期，0 表示不清零。
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests HalfOpen 状态允许通过的请求数。
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 状态变化回调，在 gobreaker 内部锁中同步调用，不应阻塞。
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器。
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:          name,
		tripPolicy:    NewConsecutiveFailures(DefaultThreshold),
		successPolicy: TransientOnly(),
		timeout:       DefaultTimeout,
		maxRequests:   DefaultMaxRequests,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.cb = gobreaker.NewCircuitBreaker[any](b.settings())
	return b
}

func (b *Breaker) settings() gobreaker.Settings {
	st := gobreaker.Settings{
		Name:         b.name,
		MaxRequests:  b.maxRequests,
		Interval:     b.interval,
		Timeout:      b.timeout,
		ReadyToTrip:  b.tripPolicy.ReadyToTrip,
		IsSuccessful: b.successPolicy.IsSuccessful,
	}
	if b.onStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		}
	}
	return st
}

// Execute 在熔断保护下执行 fn。
//
// ctx 已结束时直接返回 ctx.Err()；熔断器拒绝时返回 *BreakerError，fn 不会执行。
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	switch {
	case ctx == nil:
		return zero, ErrNilContext
	case b == nil:
		return zero, ErrNilBreaker
	case fn == nil:
		return zero, ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, wrapBreakerError(err, b.name)
	}
	if typed, ok := result.(T); ok {
		return typed, nil
	}
	return zero, nil
}

// Guard 返回受 b 保护的 op，可直接交给 xrecover.WithRecovery。
func Guard[T any](b *Breaker, op func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Execute(ctx, b, op)
	}
}

// Name 返回熔断器名称。
func (b *Breaker) Name() string { return b.name }

// State 返回当前状态。
func (b *Breaker) State() State { return b.cb.State() }

// Counts 返回当前统计。
func (b *Breaker) Counts() Counts { return b.cb.Counts() }

// IsSuccessful 按成功判定策略判断 err。
func (b *Breaker) IsSuccessful(err error) bool { return b.successPolicy.IsSuccessful(err) }
