package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// 未调用 SetDefault 时，默认 Logger 从这两个环境变量读取级别和格式。
const (
	EnvLogLevel  = "XLOADKIT_LOG_LEVEL"
	EnvLogFormat = "XLOADKIT_LOG_FORMAT"
)

var (
	globalLogger atomic.Pointer[LoggerWithLevel]

	// globalMu 保护 globalOnce，ResetDefault 也持有它
	globalMu   sync.Mutex
	globalOnce sync.Once
)

// defaultBuilder 输出到 stderr，级别和格式取自环境变量，未设置时为 info/text。
func defaultBuilder() *Builder {
	b := New()
	if v := os.Getenv(EnvLogLevel); v != "" {
		b.SetLevelString(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		b.SetFormat(v)
	}
	return b
}

// fallbackLogger 环境变量非法时使用：stderr、text、Info。
func fallbackLogger() LoggerWithLevel {
	return &xlogger{
		handler:        slog.NewTextHandler(os.Stderr, nil),
		levelVar:       new(slog.LevelVar),
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}
}

func initDefault() LoggerWithLevel {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		logger, _, err := defaultBuilder().Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "xlog: %s/%s ignored: %v\n", EnvLogLevel, EnvLogFormat, err)
			logger = fallbackLogger()
		}
		globalLogger.Store(&logger)
	})
	return *globalLogger.Load()
}

// Default 返回全局 Logger，首次调用时按 [EnvLogLevel]、[EnvLogFormat] 创建。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	return initDefault()
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 回到未初始化状态，下次 Default 重新读取环境变量。仅用于测试。
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// logGlobal 包级函数比方法多一层调用，xlogger 需多跳过 1 帧。
func logGlobal(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.logWithSkip(ctx, level, msg, attrs, 1)
		return
	}
	switch {
	case level < slog.LevelInfo:
		l.Debug(ctx, msg, attrs...)
	case level < slog.LevelWarn:
		l.Info(ctx, msg, attrs...)
	case level < slog.LevelError:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 写入全局 Logger
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelDebug, msg, attrs)
}

// Info 写入全局 Logger
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 写入全局 Logger
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelWarn, msg, attrs)
}

// Error 写入全局 Logger
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	logGlobal(ctx, slog.LevelError, msg, attrs)
}

// Stack 写入带堆栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stackWithSkip(ctx, msg, attrs, 1)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
