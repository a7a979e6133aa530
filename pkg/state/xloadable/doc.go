// Package xloadable 提供面向界面的加载状态机。
//
// Controller 持有一份数据和它的加载状态（idle、loading、ready、error），
// 并在加载成功时加入平滑等待：
//   - 最短加载时间（默认 220ms），避免快速响应时加载指示闪烁
//   - 成功后的稳定延迟（默认 60ms），避免 ready 后紧接下一次加载时闪烁
//
// LoadWithRetry 失败时按封顶指数退避重试，每次重试重新进入 loading，
// 次数耗尽后停留在 error 状态并返回最后一次失败。
//
// 状态快照是不可变值，State 可在任意 goroutine 读取。Controller 不串行化
// 同一实例上并发的 Load 调用：后完成的调用覆盖先完成的。
//
// 基本用法：
//
//	c := xloadable.New[Scene](xloadable.WithReporter(reporter))
//	cancel := c.Subscribe(func(s xloadable.State[Scene]) { render(s) })
//	defer cancel()
//
//	scene, err := c.LoadWithRetry(ctx, fetchScene, xloadable.WithName("load scene"))
package xloadable
