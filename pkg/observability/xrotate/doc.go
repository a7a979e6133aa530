// Package xrotate 为 xlog 提供按大小轮转的日志文件输出。
//
// [NewLumberjack] 基于 lumberjack v2，超过 MaxSizeMB 自动轮转，
// 按 MaxBackups 和 MaxAgeDays 清理旧文件，二者不能同时为 0。
package xrotate
