package xtrace

import (
	"context"
	"net/http"
	"strings"
)

// HTTP Header 名称
const (
	HeaderTraceID   = "X-Trace-ID"
	HeaderSpanID    = "X-Span-ID"
	HeaderRequestID = "X-Request-ID"

	// W3C Trace Context
	HeaderTraceparent = "traceparent"
	HeaderTracestate  = "tracestate"
)

// ExtractFromHTTPHeader 从 HTTP Header 提取追踪信息。
// traceparent 合法时覆盖 X-Trace-ID 和 X-Span-ID 的值。
func ExtractFromHTTPHeader(h http.Header) TraceInfo {
	if h == nil {
		return TraceInfo{}
	}

	info := TraceInfo{
		TraceID:     strings.TrimSpace(h.Get(HeaderTraceID)),
		SpanID:      strings.TrimSpace(h.Get(HeaderSpanID)),
		RequestID:   strings.TrimSpace(h.Get(HeaderRequestID)),
		Traceparent: strings.TrimSpace(h.Get(HeaderTraceparent)),
		Tracestate:  strings.TrimSpace(h.Get(HeaderTracestate)),
	}
	if info.Traceparent != "" {
		if traceID, spanID, flags, ok := parseTraceparent(info.Traceparent); ok {
			info.TraceID = traceID
			info.SpanID = spanID
			info.TraceFlags = flags
		}
	}
	return info
}

// MiddlewareOption 中间件选项
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	autoGenerate bool
}

// WithAutoGenerate 设置是否自动生成缺失的追踪 ID，默认 true。
func WithAutoGenerate(enabled bool) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.autoGenerate = enabled
	}
}

// HTTPMiddleware 返回 HTTP 中间件，从请求头提取追踪信息并注入 context。
func HTTPMiddleware(opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{autoGenerate: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := ExtractFromHTTPHeader(r.Header)
			ctx := ContextWithTraceInfo(r.Context(), info, cfg.autoGenerate)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectToRequest 把 context 中的追踪信息写入请求头，保留上游的 trace-flags。
// 不传播 tracestate。
func InjectToRequest(ctx context.Context, req *http.Request) {
	if req == nil {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	InjectTraceToHeader(req.Header, TraceInfoFromContext(ctx))
}

// InjectTraceToHeader 将 TraceInfo 写入 h。
//
// Traceparent 无效时丢弃并尝试从 TraceID/SpanID 生成。
// 仅在 traceparent 写入成功时才写 tracestate。
func InjectTraceToHeader(h http.Header, info TraceInfo) {
	if h == nil {
		return
	}
	if info.TraceID != "" {
		h.Set(HeaderTraceID, info.TraceID)
	}
	if info.SpanID != "" {
		h.Set(HeaderSpanID, info.SpanID)
	}
	if info.RequestID != "" {
		h.Set(HeaderRequestID, info.RequestID)
	}

	traceparent := resolveTraceparent(info)
	if traceparent == "" {
		return
	}
	h.Set(HeaderTraceparent, traceparent)
	if info.Tracestate != "" {
		h.Set(HeaderTracestate, info.Tracestate)
	}
}
