// Package xretry 提供退避计算和带硬性次数上限的重试辅助函数。
//
// # 退避策略
//
// [ExponentialBackoff] 按 factor 指数增长并封顶，可选扩散抖动：
//
//	delay(n)  = min(initial * factor^(n-1), max)
//	sleep(n)  = clamp(delay(n) ± rand * min(30% * delay(n), 200ms), 0, max)
//
// 抖动用于避免多个调用方同步重试形成风暴。
//
// # 重试
//
// [Retry] / [RetryWithData] 以 2 倍指数退避（上限 3s）重试，
// 达到 attempts 后返回最后一次失败：
//
//	v, err := xretry.RetryWithData(ctx, func(ctx context.Context) (Screen, error) {
//	    return client.Screen(ctx, id)
//	}, 3, 300*time.Millisecond)
//
// 底层使用 [avast/retry-go/v5]，所有等待都可通过 ctx 取消。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
