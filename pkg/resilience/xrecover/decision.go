package xrecover

import (
	"time"

	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

// DefaultRetryDelay 决策未指定延迟时的重试间隔
const DefaultRetryDelay = 300 * time.Millisecond

// Decision 对一次失败的处置。
//
// Fallback 非 nil 时执行器直接返回该值，不论 ShouldRetry。
// Degrade 在每次失败后调用（如果存在），其 panic 被忽略。
type Decision[T any] struct {
	ShouldRetry bool
	// RetryDelay <= 0 表示使用 DefaultRetryDelay
	RetryDelay time.Duration
	Fallback   *T
	Degrade    func()
	Reason     string
}

// WithFallback 返回带 fallback 值的副本。
func (d Decision[T]) WithFallback(v T) Decision[T] {
	d.Fallback = &v
	return d
}

// Delay 返回实际等待时间。
func (d Decision[T]) Delay() time.Duration {
	if d.RetryDelay <= 0 {
		return DefaultRetryDelay
	}
	return d.RetryDelay
}

// Summary 转换为报告用的非泛型摘要。
func (d Decision[T]) Summary() xreport.Decision {
	s := xreport.Decision{
		ShouldRetry: d.ShouldRetry,
		HasFallback: d.Fallback != nil,
		HasDegrade:  d.Degrade != nil,
		Reason:      d.Reason,
	}
	if d.ShouldRetry {
		s.RetryDelay = d.Delay()
	}
	return s
}

// Policy 根据失败分类和已失败次数（从 1 开始，包含刚失败的这次）给出决策。
// 实现必须是纯函数。
type Policy[T any] func(category xfault.Category, attempt int) Decision[T]

// DefaultPolicy 按 DefaultTable 决策。
func DefaultPolicy[T any](category xfault.Category, attempt int) Decision[T] {
	return decide[T](defaultTable, category, attempt)
}
