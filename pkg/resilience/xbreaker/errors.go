package xbreaker

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// 参数校验错误
var (
	ErrNilBreaker = errors.New("xbreaker: breaker cannot be nil")
	ErrNilContext = errors.New("xbreaker: context cannot be nil")
	ErrNilFunc    = errors.New("xbreaker: function cannot be nil")
)

// BreakerError 熔断器拒绝执行。
//
// 实现 xfault.StatusCoder（503），因此被分类为 SERVER_ERROR。
type BreakerError struct {
	Err   error // ErrOpenState 或 ErrTooManyRequests
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

// Unwrap 返回 gobreaker 原始错误。
func (e *BreakerError) Unwrap() error {
	return e.Err
}

// StatusCode 返回 503。
func (e *BreakerError) StatusCode() int {
	return http.StatusServiceUnavailable
}

// wrapBreakerError 只包装 gobreaker 直接返回的哨兵错误，
// 避免把内层熔断器的错误归到外层。状态由错误推导。
func wrapBreakerError(err error, name string) error {
	var be *BreakerError
	if errors.As(err, &be) {
		return err
	}
	switch err { //nolint:errorlint // 只匹配哨兵本身
	case gobreaker.ErrOpenState:
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case gobreaker.ErrTooManyRequests:
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 报告 err 是否为熔断器打开错误。
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsTooManyRequests 报告 err 是否为半开状态请求过多错误。
func IsTooManyRequests(err error) bool {
	return errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsBreakerError 报告 err 是否来自熔断器拒绝。
func IsBreakerError(err error) bool {
	return IsOpen(err) || IsTooManyRequests(err)
}
