// Package xrecover 按失败分类决定重试、降级或 fallback，并驱动重试循环。
//
// # 策略
//
// [Policy] 把 (分类, 已失败次数) 映射为 [Decision]。[DefaultPolicy] 的默认表：
//
//	NETWORK       attempt < 3  延迟 300ms × attempt
//	TIMEOUT       attempt < 3  延迟 300ms × attempt
//	RATE_LIMIT    attempt < 4  延迟 800ms × attempt
//	SERVER_ERROR  attempt < 2  固定 500ms
//	其他分类      不重试
//
// 表可以来自配置（[Table]、[ParseTable]），经 [TableHolder] 原子替换后立即生效。
//
// # 执行
//
// [WithRecovery] 每次失败依次执行：分类、决策、报告、degrade、fallback 判断、重试判断。
// fallback 优先于重试；不重试且无 fallback 时返回最后一次失败。ctx 取消会中断退避等待。
// 报告和 degrade 的 panic 被吞掉，操作的 panic 转为 *xfault.PanicError 参与分类。
//
// [LastGood] 记住每个操作最近一次成功的值，在策略放弃时作为 fallback 返回。
package xrecover
