package xreport

import (
	"context"
	"log/slog"

	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xsampling"
)

// 日志字段 key
const (
	keyCode    = "code"
	keyErrorID = "error_id"
	keyURL     = "url"
	keyRetry   = "should_retry"
	keyReason  = "reason"
)

// LogReporter 经 xlog 输出报告。
//
// 将要重试或使用 fallback 的失败记 Warn，并受采样器约束；
// 终止性失败和无 Failure 的报告记 Error，始终输出。
type LogReporter struct {
	logger  xlog.Logger
	sampler xsampling.Sampler
}

// LogOption LogReporter 配置选项
type LogOption func(*LogReporter)

// WithSampler 设置 Warn 级别报告的采样器，nil 表示全部输出。
func WithSampler(s xsampling.Sampler) LogOption {
	return func(r *LogReporter) {
		r.sampler = s
	}
}

// NewLogReporter 创建 LogReporter。logger 为 nil 时每次使用 xlog.Default()。
func NewLogReporter(logger xlog.Logger, opts ...LogOption) *LogReporter {
	r := &LogReporter{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report 实现 Reporter。
func (r *LogReporter) Report(ctx context.Context, info *ErrorInfo) {
	if info == nil {
		return
	}
	logger := r.logger
	if logger == nil {
		logger = xlog.Default()
	}

	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs,
		slog.String(keyCode, info.Code),
		slog.String(xlog.KeyError, info.Message),
		slog.String(keyErrorID, info.ID),
	)
	if info.Operation != "" {
		attrs = append(attrs, xlog.Operation(info.Operation))
	}
	if info.URL != "" {
		attrs = append(attrs, slog.String(keyURL, info.URL))
	}

	f := info.Failure
	if f == nil {
		logger.Error(ctx, "operation failed", attrs...)
		return
	}

	attrs = append(attrs,
		xlog.Category(f.Category.String()),
		xlog.Attempt(f.Attempt),
		slog.Bool(keyRetry, f.Decision.ShouldRetry),
	)
	if f.Decision.Reason != "" {
		attrs = append(attrs, slog.String(keyReason, f.Decision.Reason))
	}

	switch {
	case f.Decision.Terminal():
		logger.Error(ctx, "operation failed", attrs...)
	case r.sampler != nil && !r.sampler.ShouldSample(ctx):
		return
	case f.Decision.HasFallback:
		logger.Warn(ctx, "operation failed, using fallback", attrs...)
	default:
		attrs = append(attrs, xlog.Duration(f.Decision.RetryDelay))
		logger.Warn(ctx, "operation failed, retrying", attrs...)
	}
}

var _ Reporter = (*LogReporter)(nil)
