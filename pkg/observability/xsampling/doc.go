// Package xsampling 提供报告和日志的采样策略。
//
// 持续重试的操作会在短时间内产生大量相同的失败报告，
// 采样器决定哪些报告值得输出。
//
//   - [Always] / [Never]：全采样 / 不采样
//   - [NewRateSampler]：固定比率随机采样
//   - [NewCountSampler]：每 n 个采样 1 个
//   - [NewKeyBasedSampler]：按 key 一致性采样（xxhash），同一 key 的决策恒定
//   - [ByOperation]：以 context 中的操作名为 key 的一致性采样
//
// 所有采样器并发安全。
package xsampling
