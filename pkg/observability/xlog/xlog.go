package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。所有方法要求 ctx，追踪和操作字段从 ctx 注入。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 以 Error 级别记录，附带当前 goroutine 的调用栈。
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger，与父级共享级别。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回分组的派生 Logger
	WithGroup(name string) Logger
}

// Leveler 运行时级别控制
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level

	// Enabled 用于在构造昂贵属性前检查级别
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Build 返回的组合接口
type LoggerWithLevel interface {
	Logger
	Leveler
}
