// Package xreport 定义失败报告的数据结构和投递接口。
//
// 重试执行器每次失败都会构造一个 [Attempt]（操作名、分类、尝试次数、决策摘要），
// 转换为 [ErrorInfo] 后交给注入的 [Reporter]。报告是旁路行为：
// Reporter 不返回错误，panic 由 [Safe] 隔离，不会影响调用方的控制流。
//
// # 内置 Reporter
//
//   - [Store]：内存中的当前错误 + 有界历史（默认 10 条，最新在前），支持订阅
//   - [LogReporter]：经 xlog 输出，重试中记 Warn，终止时记 Error，可按操作采样
//   - [RedisSink]：JSON 写入 Redis 列表并裁剪长度，可选按操作限流
//   - [Multi]：扇出到多个 Reporter，单个 sink 的 panic 不影响其他 sink
//
// 没有全局默认 sink，未注入 Reporter 时报告被丢弃。
//
// # 错误码
//
// [ErrorInfo].Code 取值：HTTP 状态码（十进制字符串）、NETWORK、PANIC 或 LIVE。
// [IsSerious] 判断错误是否需要完整错误页而非轻提示。
package xreport
