package xctx

import "errors"

// contextKey 包私有 key 类型，字符串值便于调试时识别。
type contextKey string

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingOperation operation 缺失
	ErrMissingOperation = errors.New("xctx: missing operation")

	// ErrInvalidAttempt attempt 小于 1
	ErrInvalidAttempt = errors.New("xctx: attempt must be at least 1")

	// ErrMissingTraceID trace_id 缺失
	ErrMissingTraceID = errors.New("xctx: missing trace_id")

	// ErrMissingSpanID span_id 缺失
	ErrMissingSpanID = errors.New("xctx: missing span_id")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")
)
