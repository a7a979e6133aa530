package xctx

import "context"

// 操作字段的日志 key
const (
	KeyOperation = "operation"
	KeyAttempt   = "attempt"
)

const (
	keyOperation = contextKey("xctx:operation")
	keyAttempt   = contextKey("xctx:attempt")
)

// WithOperation 将操作名注入 context。
func WithOperation(ctx context.Context, name string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyOperation, name), nil
}

// Operation 从 context 提取操作名，不存在返回空字符串。
func Operation(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyOperation).(string); ok {
		return v
	}
	return ""
}

// RequireOperation 从 context 获取操作名，不存在则返回 ErrMissingOperation。
func RequireOperation(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := Operation(ctx)
	if v == "" {
		return "", ErrMissingOperation
	}
	return v, nil
}

// WithAttempt 将当前尝试次数（从 1 开始）注入 context。
func WithAttempt(ctx context.Context, attempt int) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if attempt < 1 {
		return nil, ErrInvalidAttempt
	}
	return context.WithValue(ctx, keyAttempt, attempt), nil
}

// Attempt 从 context 提取尝试次数，不存在返回 0。
func Attempt(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(keyAttempt).(int); ok {
		return v
	}
	return 0
}

// Call 一次操作调用的上下文信息
type Call struct {
	Operation string
	Attempt   int
}

// GetCall 从 context 批量获取操作信息。
func GetCall(ctx context.Context) Call {
	return Call{Operation: Operation(ctx), Attempt: Attempt(ctx)}
}

// WithCall 注入操作名和尝试次数。Operation 为空时跳过，Attempt 为 0 时跳过。
func WithCall(ctx context.Context, c Call) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	var err error
	if c.Operation != "" {
		if ctx, err = WithOperation(ctx, c.Operation); err != nil {
			return nil, err
		}
	}
	if c.Attempt != 0 {
		if ctx, err = WithAttempt(ctx, c.Attempt); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}
