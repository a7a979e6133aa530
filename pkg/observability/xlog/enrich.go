package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

// ErrNilHandler NewEnrichHandler 的 base 为 nil
var ErrNilHandler = errors.New("xlog: base handler is nil")

// maxEnrichAttrs trace 4 个 + call 2 个
const maxEnrichAttrs = 6

// EnrichHandler 包装 slog.Handler，在 Handle 时从 context 注入追踪字段和调用字段。
//
// 缺失的字段直接跳过，不影响日志输出。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 注入 trace_id 等追踪字段，之后是 operation 和 attempt。
//
// 修改前先 Clone record，不影响同一 record 的其他 handler。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := buf[:0]
	attrs = xctx.AppendTraceAttrs(attrs, ctx)
	attrs = xctx.AppendCallAttrs(attrs, ctx)

	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 实现 slog.Handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 实现 slog.Handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
