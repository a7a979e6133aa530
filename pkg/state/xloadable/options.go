package xloadable

import (
	"time"

	"github.com/omeyang/xloadkit/pkg/resilience/xretry"
)

// 加载默认值
const (
	DefaultMinLoading    = 220 * time.Millisecond
	DefaultSuccessDelay  = 60 * time.Millisecond
	DefaultAttempts      = 3
	DefaultInitialDelay  = 250 * time.Millisecond
	DefaultMaxDelay      = 2 * time.Second
	DefaultBackoffFactor = 2.0
)

// LoadOption Load / LoadWithRetry 的配置选项
type LoadOption func(*loadConfig)

type loadConfig struct {
	name          string
	minLoading    time.Duration
	successDelay  time.Duration
	attempts      int
	initialDelay  time.Duration
	maxDelay      time.Duration
	backoffFactor float64
	jitter        bool
}

func defaultLoadConfig() loadConfig {
	return loadConfig{
		minLoading:    DefaultMinLoading,
		successDelay:  DefaultSuccessDelay,
		attempts:      DefaultAttempts,
		initialDelay:  DefaultInitialDelay,
		maxDelay:      DefaultMaxDelay,
		backoffFactor: DefaultBackoffFactor,
		jitter:        true,
	}
}

func (c loadConfig) backoff() xretry.Backoff {
	return xretry.NewExponentialBackoff(
		xretry.WithInitialDelay(c.initialDelay),
		xretry.WithMaxDelay(c.maxDelay),
		xretry.WithFactor(c.backoffFactor),
		xretry.WithJitter(c.jitter),
	)
}

// WithName 操作名，用于错误报告、日志和 span。
func WithName(name string) LoadOption {
	return func(c *loadConfig) { c.name = name }
}

// WithMinLoading 成功时 loading 状态至少持续的时间，d < 0 时忽略。
func WithMinLoading(d time.Duration) LoadOption {
	return func(c *loadConfig) {
		if d >= 0 {
			c.minLoading = d
		}
	}
}

// WithSuccessDelay 成功后切换到 ready 前的额外等待，d < 0 时忽略。
func WithSuccessDelay(d time.Duration) LoadOption {
	return func(c *loadConfig) {
		if d >= 0 {
			c.successDelay = d
		}
	}
}

// WithAttempts LoadWithRetry 的最大执行次数，n < 1 时忽略。
func WithAttempts(n int) LoadOption {
	return func(c *loadConfig) {
		if n >= 1 {
			c.attempts = n
		}
	}
}

// WithInitialDelay 第一次重试前的等待，d < 0 时忽略。
func WithInitialDelay(d time.Duration) LoadOption {
	return func(c *loadConfig) {
		if d >= 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay 重试等待上限，d <= 0 时忽略。
func WithMaxDelay(d time.Duration) LoadOption {
	return func(c *loadConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithBackoffFactor 每次重试后等待的增长倍数，f < 1 时忽略。
func WithBackoffFactor(f float64) LoadOption {
	return func(c *loadConfig) {
		if f >= 1 {
			c.backoffFactor = f
		}
	}
}

// WithJitter 是否对重试等待施加 ±min(30%, 200ms) 的抖动。
func WithJitter(enabled bool) LoadOption {
	return func(c *loadConfig) { c.jitter = enabled }
}

// Config 加载配置的可序列化形式
type Config struct {
	MinLoading    time.Duration `koanf:"min_loading" json:"min_loading"`
	SuccessDelay  time.Duration `koanf:"success_delay" json:"success_delay"`
	Attempts      int           `koanf:"attempts" json:"attempts"`
	InitialDelay  time.Duration `koanf:"initial_delay" json:"initial_delay"`
	MaxDelay      time.Duration `koanf:"max_delay" json:"max_delay"`
	BackoffFactor float64       `koanf:"backoff_factor" json:"backoff_factor"`
	Jitter        bool          `koanf:"jitter" json:"jitter"`
}

// DefaultConfig 返回默认加载配置。
func DefaultConfig() Config {
	return Config{
		MinLoading:    DefaultMinLoading,
		SuccessDelay:  DefaultSuccessDelay,
		Attempts:      DefaultAttempts,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
		Jitter:        true,
	}
}

// Options 转换为 LoadOption，非法值按各选项的规则忽略。
func (c Config) Options() []LoadOption {
	return []LoadOption{
		WithMinLoading(c.MinLoading),
		WithSuccessDelay(c.SuccessDelay),
		WithAttempts(c.Attempts),
		WithInitialDelay(c.InitialDelay),
		WithMaxDelay(c.MaxDelay),
		WithBackoffFactor(c.BackoffFactor),
		WithJitter(c.Jitter),
	}
}
