// Package xfault 将任意失败值归类到固定的失败类别。
//
// # 失败类别
//
// 七个类别构成封闭枚举，是重试决策使用的唯一词汇：
//   - CategoryNetwork：连接失败（拨号、DNS、连接重置等）
//   - CategoryTimeout：超时
//   - CategoryRateLimit：限流（429）
//   - CategoryClientError：4xx 等价错误
//   - CategoryServerError：5xx 等价错误
//   - CategoryLocalFault：本地抛出的错误（编程错误、参数错误等）
//   - CategoryUnknown：无法识别的失败值
//
// # 标记联合
//
// 失败值在边界处被转换为 [Failure] 的三个变体之一：
//   - [StatusFailure]：携带 HTTP 状态码（或可映射为 HTTP 状态码的 gRPC 状态）
//   - [ErrorFailure]：普通 error
//   - [OpaqueFailure]：nil、字符串、非 error 的 panic 值等不透明值
//
// [Classify] 只根据变体做判断，不做运行时类型探测，且永不 panic：
//
//	cat := xfault.ClassifyError(err)
//	if cat.Transient() {
//	    // 可以考虑重试
//	}
//
// 详细的错误信息（消息、状态码、堆栈）保留在原始错误中用于上报，
// 但只有类别参与控制流。
package xfault
