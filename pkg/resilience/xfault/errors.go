package xfault

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// ErrInvalidCategory 类别名称或数值非法。
var ErrInvalidCategory = errors.New("xfault: invalid category")

// StatusCoder 携带 HTTP 状态码的失败值。
// 实现此接口的 error 会被识别为 [StatusFailure]。
type StatusCoder interface {
	StatusCode() int
}

// StatusError 携带 HTTP 状态码的错误。
//
// 通常由边界适配器（如 xhttp）在收到非 2xx 响应时创建。
type StatusError struct {
	Code   int    // HTTP 状态码
	Status string // 状态行文本，如 "503 Service Unavailable"
	Method string // 请求方法
	URL    string // 请求地址
	Body   string // 响应体片段（可能被截断）
}

// NewStatusError 创建只携带状态码的 StatusError。
func NewStatusError(code int) *StatusError {
	return &StatusError{Code: code, Status: fmt.Sprintf("%d %s", code, http.StatusText(code))}
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	if e.URL == "" {
		return "HTTP " + status
	}
	if e.Method == "" {
		return fmt.Sprintf("HTTP %s: %s", status, e.URL)
	}
	return fmt.Sprintf("HTTP %s: %s %s", status, e.Method, e.URL)
}

// StatusCode 实现 StatusCoder。
func (e *StatusError) StatusCode() int {
	return e.Code
}

// PanicError 由操作 panic 转换而来的错误。
//
// 如果 panic 值本身是 error，Unwrap 返回它，分类时按该 error 处理；
// 否则分类为 CategoryUnknown。
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap 返回 panic 值中的 error（如果有）。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// CapturePanic 执行 fn，将其 panic 转换为 *PanicError。
//
//	v, err := xfault.CapturePanic(func() (T, error) { return op(ctx) })
func CapturePanic[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
