package xbreaker

import (
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
)

// ReasonOpen 熔断器打开时决策的 Reason
const ReasonOpen = "circuit open"

// DegradeWhenOpen 包装 p：b 处于 Open 状态时不再重试，改为调用 degrade。
//
// p 给出的 fallback 保留；degrade 为 nil 时沿用 p 的 Degrade。
// b 不处于 Open 状态时决策与 p 相同。
func DegradeWhenOpen[T any](b *Breaker, p xrecover.Policy[T], degrade func()) xrecover.Policy[T] {
	if p == nil {
		p = xrecover.DefaultPolicy[T]
	}
	return func(c xfault.Category, attempt int) xrecover.Decision[T] {
		d := p(c, attempt)
		if b == nil || b.State() != StateOpen {
			return d
		}
		d.ShouldRetry = false
		d.RetryDelay = 0
		if degrade != nil {
			d.Degrade = degrade
		}
		if d.Fallback == nil {
			d.Reason = ReasonOpen
		}
		return d
	}
}
