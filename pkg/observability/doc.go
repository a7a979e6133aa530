// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xtrace: HTTP 追踪标识传播
//   - xmetrics: 观测接口与 OpenTelemetry 实现，失败计数
//   - xreport: 错误报告（内存存储、日志、Redis、指标）
//   - xsampling: 采样策略
//   - xrotate: 日志文件轮转
//
// 日志自动从 context 中提取追踪信息和调用信息，遵循 OpenTelemetry 语义规范。
package observability
