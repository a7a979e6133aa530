// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取追踪标识与调用信息（操作名、尝试次数）
//
// 所有上下文信息通过 context.Context 传递，不使用全局变量。
package context
