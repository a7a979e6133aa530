// Package xctx 提供操作上下文的存取能力。
//
// 重试执行器和加载控制器在调用业务函数前，把当前操作名和尝试次数写入 context，
// 业务函数内部的日志因此自动带上这些字段；追踪标识同样经由 context 传播。
//
// # 字段
//
// 操作信息（Call）：
//   - operation : 操作名（如 "load screen"）
//   - attempt   : 当前尝试次数，从 1 开始
//
// 追踪信息（Trace）：
//   - trace_id    : 追踪标识（W3C 规范，128-bit）
//   - span_id     : 跨度标识（W3C 规范，64-bit）
//   - request_id  : 请求标识
//   - trace_flags : 追踪标志（采样决策）
//
// 未显式注入 trace_id/span_id 时，读取函数回退到 OpenTelemetry 当前 span。
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：从 context 读取值，缺失时返回零值
//	RequireXxx(ctx)        - 强制读取：缺失时返回错误
//	EnsureXxx(ctx)         - 补全：缺失时自动生成
//
// 所有 WithXxx 在 ctx 为 nil 时返回 [ErrNilContext]。
//
// # 日志集成
//
// [AppendTraceAttrs] / [AppendCallAttrs] 把字段转换为 slog.Attr，
// xlog 的 EnrichHandler 在每条日志上调用它们。
package xctx
