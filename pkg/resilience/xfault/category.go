package xfault

import (
	"fmt"
	"strconv"
	"strings"
)

// Category 失败类别。零值为 CategoryUnknown。
type Category int

const (
	// CategoryUnknown 无法识别的失败值
	CategoryUnknown Category = iota
	// CategoryNetwork 网络连接失败
	CategoryNetwork
	// CategoryTimeout 超时
	CategoryTimeout
	// CategoryRateLimit 被限流
	CategoryRateLimit
	// CategoryClientError 4xx 等价错误
	CategoryClientError
	// CategoryServerError 5xx 等价错误
	CategoryServerError
	// CategoryLocalFault 本地错误
	CategoryLocalFault
)

var categoryNames = [...]string{
	CategoryUnknown:     "UNKNOWN",
	CategoryNetwork:     "NETWORK",
	CategoryTimeout:     "TIMEOUT",
	CategoryRateLimit:   "RATE_LIMIT",
	CategoryClientError: "CLIENT_ERROR",
	CategoryServerError: "SERVER_ERROR",
	CategoryLocalFault:  "LOCAL_FAULT",
}

// Categories 返回全部七个类别，顺序固定。
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryTimeout,
		CategoryRateLimit,
		CategoryClientError,
		CategoryServerError,
		CategoryLocalFault,
		CategoryUnknown,
	}
}

// String 返回类别名称（NETWORK、TIMEOUT 等）。
func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Valid 报告 c 是否为已定义的类别。
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

// Transient 报告该类别是否可能是暂时性的。
// 客户端错误、本地错误和未知错误都不是暂时性的。
func (c Category) Transient() bool {
	switch c {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit, CategoryServerError:
		return true
	default:
		return false
	}
}

// MarshalText 实现 encoding.TextMarshaler，用于配置和 JSON 序列化。
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (c *Category) UnmarshalText(data []byte) error {
	parsed, err := ParseCategory(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory 解析类别名称，大小写不敏感，允许使用 '-' 代替 '_'。
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for i, name := range categoryNames {
		if name == normalized {
			return Category(i), nil
		}
	}
	return CategoryUnknown, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}
