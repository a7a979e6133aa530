package xtrace

import (
	"context"
	"log/slog"
	"strings"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
	"github.com/omeyang/xloadkit/pkg/observability/xlog"
)

// TraceInfo 链路追踪信息。
//
// traceparent 解析成功时 TraceID/SpanID/TraceFlags 来自解析结果，
// Traceparent 保留原始字符串。
type TraceInfo struct {
	TraceID    string
	SpanID     string
	RequestID  string
	TraceFlags string // W3C trace-flags，"01" 表示已采样

	Traceparent string
	Tracestate  string
}

// IsEmpty 判断追踪信息是否为空
func (t TraceInfo) IsEmpty() bool {
	return t.TraceID == "" && t.SpanID == "" && t.RequestID == "" &&
		t.TraceFlags == "" && t.Traceparent == "" && t.Tracestate == ""
}

// TraceInfoFromContext 从 context 提取追踪信息，不含 Traceparent 和 Tracestate。
func TraceInfoFromContext(ctx context.Context) TraceInfo {
	tr := xctx.GetTrace(ctx)
	return TraceInfo{
		TraceID:    tr.TraceID,
		SpanID:     tr.SpanID,
		RequestID:  tr.RequestID,
		TraceFlags: tr.TraceFlags,
	}
}

// ContextWithTraceInfo 把 info 中格式合法的字段写入 ctx，非法字段记录告警后丢弃。
// autoGenerate 为 true 时补全缺失的 TraceID、SpanID、RequestID。
func ContextWithTraceInfo(ctx context.Context, info TraceInfo, autoGenerate bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	var tr xctx.Trace
	tr.TraceID = validated(ctx, "trace_id", info.TraceID, isValidTraceID)
	tr.SpanID = validated(ctx, "span_id", info.SpanID, isValidSpanID)
	tr.RequestID = info.RequestID
	if flags := validated(ctx, "trace_flags", info.TraceFlags, isValidTraceFlags); flags != "" {
		tr.TraceFlags = strings.ToLower(flags)
	}

	// WithTrace/EnsureTrace 只在 ctx 为 nil 时返回错误
	ctx, _ = xctx.WithTrace(ctx, tr)
	if autoGenerate {
		ctx, _ = xctx.EnsureTrace(ctx)
	}
	return ctx
}

func validated(ctx context.Context, name, value string, valid func(string) bool) string {
	if value == "" || valid(value) {
		return value
	}
	xlog.Warn(ctx, "xtrace: invalid "+name+" format, discarding", slog.String(name, value))
	return ""
}

// traceparentLen version 00 固定长度：00-{32}-{16}-{2}
const traceparentLen = 55

// parseTraceparent 解析 {version}-{trace-id}-{parent-id}-{trace-flags}。
//
// 版本 "ff" 无效；version 00 必须恰好 55 字符；
// 未知的更高版本按 version 00 解析前四个字段，额外字段必须以 '-' 分隔。
func parseTraceparent(s string) (traceID, spanID, traceFlags string, ok bool) {
	if len(s) < traceparentLen || s[2] != '-' || s[35] != '-' || s[52] != '-' {
		return "", "", "", false
	}
	version := s[0:2]
	if !isValidHex(version) || strings.EqualFold(version, "ff") {
		return "", "", "", false
	}
	if version == "00" && len(s) != traceparentLen {
		return "", "", "", false
	}
	if len(s) > traceparentLen && s[traceparentLen] != '-' {
		return "", "", "", false
	}

	traceID, spanID, traceFlags = s[3:35], s[36:52], s[53:55]
	if !isValidTraceID(traceID) || !isValidSpanID(spanID) || !isValidTraceFlags(traceFlags) {
		return "", "", "", false
	}
	return traceID, spanID, traceFlags, true
}

// formatTraceparent 生成小写的 version 00 traceparent。
// traceID 或 spanID 非法时返回空串，traceFlags 非法时使用 "00"。
func formatTraceparent(traceID, spanID, traceFlags string) string {
	if !isValidTraceID(traceID) || !isValidSpanID(spanID) {
		return ""
	}
	if !isValidTraceFlags(traceFlags) {
		traceFlags = "00"
	}

	var buf [traceparentLen]byte
	copy(buf[0:3], "00-")
	copy(buf[3:35], strings.ToLower(traceID))
	buf[35] = '-'
	copy(buf[36:52], strings.ToLower(spanID))
	buf[52] = '-'
	copy(buf[53:55], strings.ToLower(traceFlags))
	return string(buf[:])
}

// resolveTraceparent 优先使用 info.Traceparent，无效时从各字段生成。
func resolveTraceparent(info TraceInfo) string {
	if info.Traceparent != "" {
		if traceID, spanID, flags, ok := parseTraceparent(info.Traceparent); ok {
			return formatTraceparent(traceID, spanID, flags)
		}
	}
	return formatTraceparent(info.TraceID, info.SpanID, info.TraceFlags)
}

func isValidTraceFlags(flags string) bool {
	return len(flags) == 2 && isValidHex(flags)
}

func isValidTraceID(id string) bool {
	return len(id) == 32 && isValidHex(id) && id != "00000000000000000000000000000000"
}

func isValidSpanID(id string) bool {
	return len(id) == 16 && isValidHex(id) && id != "0000000000000000"
}

func isValidHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
