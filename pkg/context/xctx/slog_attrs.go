package xctx

import (
	"context"
	"log/slog"
)

// AppendTraceAttrs 追加非空的追踪字段，传入预分配切片可避免分配。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	tr := GetTrace(ctx)
	if tr.TraceID != "" {
		attrs = append(attrs, slog.String(KeyTraceID, tr.TraceID))
	}
	if tr.SpanID != "" {
		attrs = append(attrs, slog.String(KeySpanID, tr.SpanID))
	}
	if tr.RequestID != "" {
		attrs = append(attrs, slog.String(KeyRequestID, tr.RequestID))
	}
	if tr.TraceFlags != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, tr.TraceFlags))
	}
	return attrs
}

// TraceAttrs 返回追踪字段，都为空时返回 nil。
func TraceAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// AppendCallAttrs 追加 operation 和 attempt 字段（非零时）。
func AppendCallAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := Operation(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyOperation, v))
	}
	if v := Attempt(ctx); v > 0 {
		attrs = append(attrs, slog.Int(KeyAttempt, v))
	}
	return attrs
}

// LogAttrs 返回全部上下文字段：追踪在前，操作在后。
func LogAttrs(ctx context.Context) []slog.Attr {
	attrs := make([]slog.Attr, 0, traceFieldCount+2)
	attrs = AppendTraceAttrs(attrs, ctx)
	attrs = AppendCallAttrs(attrs, ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
