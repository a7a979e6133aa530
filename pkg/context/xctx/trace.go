package xctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

// ID 长度（W3C Trace Context）
const (
	// TraceIDSize 128-bit -> 32 hex chars
	TraceIDSize = 16
	// SpanIDSize 64-bit -> 16 hex chars
	SpanIDSize = 8
)

// 追踪字段的日志 key，遵循 OpenTelemetry 语义约定
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyRequestID  = "request_id"
	KeyTraceFlags = "trace_flags"

	traceFieldCount = 4
)

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyRequestID  = contextKey("xctx:request_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

func withString(ctx context.Context, key contextKey, v string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, key, v), nil
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// spanContext 返回 ctx 中有效的 OpenTelemetry span context。
func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	if ctx == nil {
		return trace.SpanContext{}, false
	}
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.IsValid()
}

// WithTraceID 将 trace ID 注入 context。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	return withString(ctx, keyTraceID, traceID)
}

// TraceID 返回 trace ID。未显式注入时回退到 OpenTelemetry 当前 span，都没有返回空字符串。
func TraceID(ctx context.Context) string {
	if v := stringValue(ctx, keyTraceID); v != "" {
		return v
	}
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceID().String()
	}
	return ""
}

// WithSpanID 将 span ID 注入 context。
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	return withString(ctx, keySpanID, spanID)
}

// SpanID 返回 span ID，回退规则同 TraceID。
func SpanID(ctx context.Context) string {
	if v := stringValue(ctx, keySpanID); v != "" {
		return v
	}
	if sc, ok := spanContext(ctx); ok {
		return sc.SpanID().String()
	}
	return ""
}

// WithRequestID 将 request ID 注入 context。
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	return withString(ctx, keyRequestID, requestID)
}

// RequestID 从 context 提取 request ID，不存在返回空字符串。
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

// WithTraceFlags 将 trace flags（2 位十六进制，如 "01"）注入 context。
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	return withString(ctx, keyTraceFlags, flags)
}

// TraceFlags 返回 trace flags，回退规则同 TraceID。
func TraceFlags(ctx context.Context) string {
	if v := stringValue(ctx, keyTraceFlags); v != "" {
		return v
	}
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceFlags().String()
	}
	return ""
}

// RequireTraceID 获取 trace ID，缺失时返回 ErrMissingTraceID。
func RequireTraceID(ctx context.Context) (string, error) {
	return require(ctx, TraceID, ErrMissingTraceID)
}

// RequireSpanID 获取 span ID，缺失时返回 ErrMissingSpanID。
func RequireSpanID(ctx context.Context) (string, error) {
	return require(ctx, SpanID, ErrMissingSpanID)
}

// RequireRequestID 获取 request ID，缺失时返回 ErrMissingRequestID。
func RequireRequestID(ctx context.Context) (string, error) {
	return require(ctx, RequestID, ErrMissingRequestID)
}

func require(ctx context.Context, get func(context.Context) string, missing error) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if v := get(ctx); v != "" {
		return v, nil
	}
	return "", missing
}

// GenerateTraceID 生成 32 位小写十六进制 trace ID。
// W3C 规范禁止全零 ID，出现时重新生成。熵源不可用时 panic。
func GenerateTraceID() string {
	return randomHex(TraceIDSize)
}

// GenerateSpanID 生成 16 位小写十六进制 span ID。
func GenerateSpanID() string {
	return randomHex(SpanIDSize)
}

// GenerateRequestID 生成 request ID，格式与 trace ID 相同。
func GenerateRequestID() string {
	return randomHex(TraceIDSize)
}

func randomHex(size int) string {
	buf := make([]byte, size)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("xctx: crypto/rand.Read failed: " + err.Error())
		}
		for _, b := range buf {
			if b != 0 {
				return hex.EncodeToString(buf)
			}
		}
	}
}

// Trace 追踪信息
type Trace struct {
	TraceID    string
	SpanID     string
	RequestID  string
	TraceFlags string
}

// GetTrace 批量获取追踪信息。
func GetTrace(ctx context.Context) Trace {
	return Trace{
		TraceID:    TraceID(ctx),
		SpanID:     SpanID(ctx),
		RequestID:  RequestID(ctx),
		TraceFlags: TraceFlags(ctx),
	}
}

// IsComplete TraceID、SpanID、RequestID 均非空时返回 true。
func (t Trace) IsComplete() bool {
	return t.TraceID != "" && t.SpanID != "" && t.RequestID != ""
}

// WithTrace 批量注入非空字段，空字段跳过（不会覆盖已有值）。
func WithTrace(ctx context.Context, tr Trace) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	fields := []struct {
		key   contextKey
		value string
	}{
		{keyTraceID, tr.TraceID},
		{keySpanID, tr.SpanID},
		{keyRequestID, tr.RequestID},
		{keyTraceFlags, tr.TraceFlags},
	}
	for _, f := range fields {
		if f.value != "" {
			ctx = context.WithValue(ctx, f.key, f.value)
		}
	}
	return ctx, nil
}

// EnsureTrace 补全缺失的 TraceID、SpanID、RequestID，已有字段原样保留。
// TraceFlags 属于上游采样决策，不自动生成。
func EnsureTrace(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	var tr Trace
	if TraceID(ctx) == "" {
		tr.TraceID = GenerateTraceID()
	}
	if SpanID(ctx) == "" {
		tr.SpanID = GenerateSpanID()
	}
	if RequestID(ctx) == "" {
		tr.RequestID = GenerateRequestID()
	}
	return WithTrace(ctx, tr)
}
