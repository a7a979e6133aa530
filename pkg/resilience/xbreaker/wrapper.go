package xbreaker

import "github.com/sony/gobreaker/v2"

// gobreaker 类型别名
type (
	Counts = gobreaker.Counts
	State  = gobreaker.State
)

// 熔断器状态
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// 熔断器拒绝错误
var (
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
	ErrOpenState       = gobreaker.ErrOpenState
)
