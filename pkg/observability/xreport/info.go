package xreport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

// 非 HTTP 状态的错误码
const (
	// CodeLive 运行期操作失败
	CodeLive = "LIVE"
	// CodeNetwork 网络不可达
	CodeNetwork = "NETWORK"
	// CodePanic 操作 panic
	CodePanic = "PANIC"
	// CodeCustom 调用方自定义错误
	CodeCustom = "CUSTOM"
)

// Decision 恢复决策的非泛型摘要，只记录是否存在 fallback/degrade。
type Decision struct {
	ShouldRetry bool          `json:"should_retry"`
	RetryDelay  time.Duration `json:"retry_delay,omitempty"`
	HasFallback bool          `json:"has_fallback,omitempty"`
	HasDegrade  bool          `json:"has_degrade,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// Terminal 决策不再重试且没有 fallback，失败将传递给调用方。
func (d Decision) Terminal() bool {
	return !d.ShouldRetry && !d.HasFallback
}

// Attempt 一次失败尝试的完整上下文，仅用于报告。
type Attempt struct {
	Operation string          `json:"operation"`
	Category  xfault.Category `json:"category"`
	Attempt   int             `json:"attempt"`
	Decision  Decision        `json:"decision"`
	Err       error           `json:"-"`
}

// context 构造报告详情，键名与日志字段保持一致。
func (a Attempt) context() map[string]any {
	m := map[string]any{
		"operation":    a.Operation,
		"category":     a.Category.String(),
		"attempt":      a.Attempt,
		"should_retry": a.Decision.ShouldRetry,
	}
	if a.Decision.ShouldRetry {
		m["retry_delay"] = a.Decision.RetryDelay.String()
	}
	if a.Decision.HasFallback {
		m["fallback"] = true
	}
	if a.Decision.HasDegrade {
		m["degrade"] = true
	}
	if a.Decision.Reason != "" {
		m["reason"] = a.Decision.Reason
	}
	return m
}

// ErrorInfo 可展示、可持久化的错误报告。
type ErrorInfo struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	Operation string          `json:"operation,omitempty"`
	URL       string          `json:"url,omitempty"`
	Stack     string          `json:"stack,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Failure   *Attempt        `json:"failure,omitempty"`

	// Err 原始错误，不参与序列化
	Err error `json:"-"`
}

// Error 实现 error，便于直接返回或包装报告。
func (e *ErrorInfo) Error() string {
	if e.Operation == "" {
		return e.Message
	}
	return e.Operation + ": " + e.Message
}

// Unwrap 返回原始错误。
func (e *ErrorInfo) Unwrap() error {
	return e.Err
}

// Serious 见 IsSerious。
func (e *ErrorInfo) Serious() bool {
	return IsSerious(e.Code)
}

// InfoOption ErrorInfo 构造选项
type InfoOption func(*ErrorInfo)

// WithCode 覆盖自动推导的错误码。
func WithCode(code string) InfoOption {
	return func(e *ErrorInfo) {
		if code != "" {
			e.Code = code
		}
	}
}

// WithURL 设置请求地址。
func WithURL(url string) InfoOption {
	return func(e *ErrorInfo) {
		e.URL = url
	}
}

// WithDetails 以缩进 JSON 记录附加上下文，编码失败时忽略。
func WithDetails(ctx map[string]any) InfoOption {
	return func(e *ErrorInfo) {
		if details, err := BuildDetails(ctx); err == nil {
			e.Details = details
		}
	}
}

// WithTimestamp 设置时间戳，主要用于测试。
func WithTimestamp(t time.Time) InfoOption {
	return func(e *ErrorInfo) {
		e.Timestamp = t
	}
}

// BuildDetails 将上下文渲染为两空格缩进的 JSON。空 map 返回 nil。
func BuildDetails(ctx map[string]any) (json.RawMessage, error) {
	if len(ctx) == 0 {
		return nil, nil
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("xreport: build details: %w", err)
	}
	return data, nil
}

// NewErrorInfo 由错误构造报告。
//
// 错误码推导：状态失败 → 状态码；panic → PANIC（附带堆栈）；
// 网络类失败 → NETWORK；其余 → LIVE。err 为 nil 时 Message 为 "unknown error"。
func NewErrorInfo(operation string, err error, opts ...InfoOption) *ErrorInfo {
	info := &ErrorInfo{
		ID:        uuid.NewString(),
		Code:      CodeLive,
		Message:   safeMessage(err),
		Operation: operation,
		Timestamp: time.Now(),
		Err:       err,
	}
	if err != nil {
		info.Code = deriveCode(err)

		var se *xfault.StatusError
		if errors.As(err, &se) {
			info.URL = se.URL
		}
		var pe *xfault.PanicError
		if errors.As(err, &pe) {
			info.Stack = string(pe.Stack)
		}
	}
	for _, opt := range opts {
		opt(info)
	}
	return info
}

// FromAttempt 由失败尝试构造报告，Details 为尝试上下文。
func FromAttempt(a Attempt, opts ...InfoOption) *ErrorInfo {
	all := make([]InfoOption, 0, len(opts)+1)
	all = append(all, WithDetails(a.context()))
	all = append(all, opts...)
	info := NewErrorInfo(a.Operation, a.Err, all...)
	info.Failure = &a
	return info
}

func deriveCode(err error) string {
	var pe *xfault.PanicError
	if errors.As(err, &pe) {
		return CodePanic
	}
	f := xfault.FromError(err)
	if sf, ok := f.(xfault.StatusFailure); ok {
		return strconv.Itoa(sf.Code)
	}
	if xfault.Classify(f) == xfault.CategoryNetwork {
		return CodeNetwork
	}
	return CodeLive
}

func safeMessage(err error) (msg string) {
	if err == nil {
		return "unknown error"
	}
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("error message unavailable: %v", r)
		}
	}()
	return err.Error()
}

// IsSerious 判断错误是否严重：数值码 >= 400，或 LIVE/PANIC/CUSTOM。
// NETWORK 等连接类错误视为轻微。
func IsSerious(code string) bool {
	if n, err := strconv.Atoi(code); err == nil {
		return n >= 400
	}
	switch code {
	case CodeLive, CodePanic, CodeCustom:
		return true
	default:
		return false
	}
}
