package xbreaker

import (
	"context"
	"errors"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

// ConsecutiveFailuresPolicy 连续失败次数达到阈值时熔断
type ConsecutiveFailuresPolicy struct {
	threshold uint32
}

// NewConsecutiveFailures 创建连续失败熔断策略，threshold 为 0 时按 1 处理。
func NewConsecutiveFailures(threshold uint32) *ConsecutiveFailuresPolicy {
	return &ConsecutiveFailuresPolicy{threshold: max(threshold, 1)}
}

// ReadyToTrip 实现 TripPolicy。
func (p *ConsecutiveFailuresPolicy) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.threshold
}

// Threshold 返回阈值。
func (p *ConsecutiveFailuresPolicy) Threshold() uint32 { return p.threshold }

// FailureRatioPolicy 请求数达到 minRequests 且失败率 >= ratio 时熔断
type FailureRatioPolicy struct {
	ratio       float64
	minRequests uint32
}

// NewFailureRatio 创建失败率熔断策略，ratio 截断到 [0, 1]。
func NewFailureRatio(ratio float64, minRequests uint32) *FailureRatioPolicy {
	return &FailureRatioPolicy{ratio: min(max(ratio, 0), 1), minRequests: minRequests}
}

// ReadyToTrip 实现 TripPolicy。
func (p *FailureRatioPolicy) ReadyToTrip(counts Counts) bool {
	if counts.Requests == 0 || counts.Requests < p.minRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.ratio
}

// Ratio 返回失败率阈值。
func (p *FailureRatioPolicy) Ratio() float64 { return p.ratio }

// CompositePolicy 任一子策略满足即熔断
type CompositePolicy struct {
	policies []TripPolicy
}

// NewCompositePolicy 组合多个策略，忽略 nil。
func NewCompositePolicy(policies ...TripPolicy) *CompositePolicy {
	filtered := make([]TripPolicy, 0, len(policies))
	for _, p := range policies {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &CompositePolicy{policies: filtered}
}

// ReadyToTrip 实现 TripPolicy。
func (p *CompositePolicy) ReadyToTrip(counts Counts) bool {
	for _, policy := range p.policies {
		if policy.ReadyToTrip(counts) {
			return true
		}
	}
	return false
}

// NeverTripPolicy 永不熔断，用于关闭熔断但保留统计。
type NeverTripPolicy struct{}

// ReadyToTrip 实现 TripPolicy。
func (NeverTripPolicy) ReadyToTrip(Counts) bool { return false }

// TransientOnly 只把暂时性失败计为失败。
//
// context 取消、客户端错误、本地错误和未知错误说明下游没有问题，计为成功。
func TransientOnly() SuccessPolicy {
	return SuccessFunc(func(err error) bool {
		if err == nil || errors.Is(err, context.Canceled) {
			return true
		}
		return !xfault.ClassifyError(err).Transient()
	})
}

// AnyError 任何非 nil 错误都计为失败。
func AnyError() SuccessPolicy {
	return SuccessFunc(func(err error) bool { return err == nil })
}
