package xrecover

import (
	"fmt"
	"maps"
	"strings"
	"sync/atomic"
	"time"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

// Scale 延迟随尝试次数的增长方式
type Scale string

const (
	// ScaleLinear 延迟 = Delay × attempt
	ScaleLinear Scale = "linear"
	// ScaleFixed 延迟 = Delay
	ScaleFixed Scale = "fixed"
)

// Rule 单个分类的重试规则：attempt < MaxAttempts 时重试。
type Rule struct {
	MaxAttempts int           `koanf:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `koanf:"delay" json:"delay"`
	Scale       Scale         `koanf:"scale" json:"scale"`
}

// Validate 校验规则，空 Scale 视为 linear。
func (r Rule) Validate() error {
	if r.MaxAttempts < 0 {
		return fmt.Errorf("%w: max_attempts %d < 0", ErrInvalidRule, r.MaxAttempts)
	}
	if r.Delay < 0 {
		return fmt.Errorf("%w: delay %s < 0", ErrInvalidRule, r.Delay)
	}
	switch r.Scale {
	case "", ScaleLinear, ScaleFixed:
		return nil
	default:
		return fmt.Errorf("%w: unknown scale %q", ErrInvalidRule, r.Scale)
	}
}

func (r Rule) delay(attempt int) time.Duration {
	if r.Scale == ScaleFixed {
		return r.Delay
	}
	return r.Delay * time.Duration(attempt)
}

// Table 分类到规则的映射，缺失的分类不重试。
type Table map[xfault.Category]Rule

var defaultTable = Table{
	xfault.CategoryNetwork:     {MaxAttempts: 3, Delay: 300 * time.Millisecond, Scale: ScaleLinear},
	xfault.CategoryTimeout:     {MaxAttempts: 3, Delay: 300 * time.Millisecond, Scale: ScaleLinear},
	xfault.CategoryRateLimit:   {MaxAttempts: 4, Delay: 800 * time.Millisecond, Scale: ScaleLinear},
	xfault.CategoryServerError: {MaxAttempts: 2, Delay: 500 * time.Millisecond, Scale: ScaleFixed},
}

// DefaultTable 返回默认表的副本。
func DefaultTable() Table {
	return maps.Clone(defaultTable)
}

// ParseTable 从配置形式（分类名 → 规则）构建 Table，分类名不区分大小写。
func ParseTable(raw map[string]Rule) (Table, error) {
	t := make(Table, len(raw))
	for name, rule := range raw {
		c, err := xfault.ParseCategory(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		if _, dup := t[c]; dup {
			return nil, fmt.Errorf("%w: duplicate category %s", ErrInvalidRule, c)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		t[c] = rule
	}
	return t, nil
}

// Merge 返回以 t 为底、other 覆盖同名分类的新表。
func (t Table) Merge(other Table) Table {
	out := maps.Clone(t)
	if out == nil {
		out = make(Table, len(other))
	}
	maps.Copy(out, other)
	return out
}

// TablePolicy 返回按 t 决策的 Policy。t 在调用后不应再修改。
func TablePolicy[T any](t Table) Policy[T] {
	return func(c xfault.Category, attempt int) Decision[T] {
		return decide[T](t, c, attempt)
	}
}

func decide[T any](t Table, c xfault.Category, attempt int) Decision[T] {
	rule, ok := t[c]
	if !ok || rule.MaxAttempts == 0 {
		return Decision[T]{Reason: c.String() + " is not retryable"}
	}
	if attempt >= rule.MaxAttempts {
		return Decision[T]{Reason: fmt.Sprintf("%s gave up after %d attempts", c, attempt)}
	}
	return Decision[T]{ShouldRetry: true, RetryDelay: rule.delay(attempt)}
}

// TableHolder 可原子替换的 Table，用于配置热更新。
type TableHolder struct {
	p atomic.Pointer[Table]
}

// NewTableHolder 创建 TableHolder，t 为 nil 时使用默认表。
func NewTableHolder(t Table) *TableHolder {
	h := &TableHolder{}
	h.Store(t)
	return h
}

// Load 返回当前表，调用方不得修改。
func (h *TableHolder) Load() Table {
	return *h.p.Load()
}

// Store 替换当前表，t 为 nil 时恢复默认表。
func (h *TableHolder) Store(t Table) {
	if t == nil {
		t = DefaultTable()
	}
	h.p.Store(&t)
}

// HolderPolicy 每次决策读取 h 的最新表。
func HolderPolicy[T any](h *TableHolder) Policy[T] {
	return func(c xfault.Category, attempt int) Decision[T] {
		return decide[T](h.Load(), c, attempt)
	}
}
