// Package xbreaker 为可恢复操作提供熔断保护。
//
// Breaker 基于 [sony/gobreaker/v2]，默认只把暂时性失败（网络、超时、限流、5xx）
// 计入熔断统计；客户端错误、本地错误和 context 取消不会打开熔断器。
//
// 与 xrecover 组合：
//
//	b := xbreaker.NewBreaker("scene-api")
//	policy := xbreaker.DegradeWhenOpen(b, xrecover.DefaultPolicy[Scene], disableLivePreview)
//	scene, err := xrecover.WithRecovery(ctx, exec, "load scene", xbreaker.Guard(b, loadScene), policy)
//
// 熔断器打开时 Guard 返回 *BreakerError（StatusCode 503），策略不再重试并调用 degrade。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
