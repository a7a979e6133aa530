// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// Builder 配置输出、级别、格式、轮转和属性治理，遇到第一个配置错误后其余设置被跳过：
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelDebug).
//		SetFormat("json").
//		SetRotation("/var/log/xloadctl.log").
//		Build()
//	defer cleanup()
//
// # 上下文字段
//
// 默认启用 [EnrichHandler]，从 context 注入 trace_id、span_id、request_id、trace_flags
// 以及当前 operation 和 attempt（见 xctx.WithCall）。对启用 enrich 的 logger 调用
// WithGroup 后，注入字段会落在该 group 下。
//
// # 全局 Logger
//
// [Default] 惰性创建 stderr、Info、text 格式的 logger；[SetDefault] 替换，
// [ResetDefault] 仅用于测试。
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Attempt]、[Category]、[Count]、
// [StatusCode]、[Method]、[URL]。
package xlog
