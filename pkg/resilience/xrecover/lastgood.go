package xrecover

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

// LastGood 默认值
const (
	DefaultLastGoodItems = 1024
	lastGoodBufferItems  = 64
)

// LastGoodOption LastGood 配置选项
type LastGoodOption func(*lastGoodConfig)

type lastGoodConfig struct {
	maxItems int64
	maxAge   time.Duration
}

// WithMaxItems 最多记住的操作数，n < 1 时忽略。
func WithMaxItems(n int64) LastGoodOption {
	return func(c *lastGoodConfig) {
		if n >= 1 {
			c.maxItems = n
		}
	}
}

// WithMaxAge 记住的值的有效期，0 表示不过期。
func WithMaxAge(d time.Duration) LastGoodOption {
	return func(c *lastGoodConfig) {
		if d >= 0 {
			c.maxAge = d
		}
	}
}

// LastGood 按操作名缓存最近一次成功的结果。
//
// 通过 [LastGood.Run] 执行时，策略放弃且没有给出 fallback 的失败会改用缓存值。
// 用完必须 Close。
type LastGood[T any] struct {
	cache  *ristretto.Cache[string, T]
	maxAge time.Duration
}

// NewLastGood 创建 LastGood。
func NewLastGood[T any](opts ...LastGoodOption) (*LastGood[T], error) {
	cfg := lastGoodConfig{maxItems: DefaultLastGoodItems}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters:        cfg.maxItems * 10,
		MaxCost:            cfg.maxItems,
		BufferItems:        lastGoodBufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("xrecover: create last-good cache: %w", err)
	}
	return &LastGood[T]{cache: cache, maxAge: cfg.maxAge}, nil
}

// Remember 记录 name 最近一次成功的值，每个值计 1 个容量单位。
// 返回 true 时 Lookup 立即可见；缓存已满且准入策略拒绝新键时返回 false。
func (l *LastGood[T]) Remember(name string, v T) bool {
	ok := l.cache.SetWithTTL(name, v, 1, l.maxAge)
	l.cache.Wait()
	return ok
}

// Lookup 返回 name 最近一次成功的值。
func (l *LastGood[T]) Lookup(name string) (T, bool) {
	return l.cache.Get(name)
}

// Forget 删除 name 的缓存值。
func (l *LastGood[T]) Forget(name string) {
	l.cache.Del(name)
	l.cache.Wait()
}

// Close 释放缓存的后台 goroutine。
func (l *LastGood[T]) Close() {
	l.cache.Close()
}

// Policy 包装 p：p 的决策既不重试也没有 fallback 时，如果 name 有缓存值，把它作为 fallback。
func (l *LastGood[T]) Policy(name string, p Policy[T]) Policy[T] {
	if p == nil {
		p = DefaultPolicy[T]
	}
	return func(c xfault.Category, attempt int) Decision[T] {
		d := p(c, attempt)
		if d.ShouldRetry || d.Fallback != nil {
			return d
		}
		if v, ok := l.Lookup(name); ok {
			d = d.WithFallback(v)
			d.Reason = "serving last good value"
		}
		return d
	}
}

// Run 以 WithRecovery 执行 op，成功时记住结果，策略放弃时返回上次成功的值。
func (l *LastGood[T]) Run(ctx context.Context, e *Executor, name string, op func(ctx context.Context) (T, error), policy Policy[T]) (T, error) {
	if op == nil {
		var zero T
		return zero, ErrNilOperation
	}
	return WithRecovery(ctx, e, name, func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		if err == nil {
			l.Remember(name, v)
		}
		return v, err
	}, l.Policy(name, policy))
}
