package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

// 标准字段名
const (
	KeyError      = "error"
	KeyStack      = "stack"
	KeyDuration   = "duration"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyStatusCode = "status_code"
	KeyCategory   = "category"

	// 与 xctx 注入的字段保持一致
	KeyRequestID = xctx.KeyRequestID
	KeyOperation = xctx.KeyOperation
	KeyAttempt   = xctx.KeyAttempt
)

// Err 创建错误属性，err 为 nil 时返回会被 slog 忽略的空属性。
//
//	if err != nil {
//	    logger.Error(ctx, "load failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 以可读格式（如 "300ms"）记录耗时。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 标识日志来源组件。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 标识当前操作。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Attempt 记录第几次尝试（从 1 开始）。
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Category 记录失败分类，如 NETWORK、RATE_LIMIT。
func Category(c string) slog.Attr {
	return slog.String(KeyCategory, c)
}

// Count 计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// StatusCode HTTP 状态码属性
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Method HTTP 方法属性
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// URL 请求地址属性
func URL(u string) slog.Attr {
	return slog.String(KeyURL, u)
}
