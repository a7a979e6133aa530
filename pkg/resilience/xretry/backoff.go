package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// 抖动参数
const (
	// SpreadRatio 抖动幅度占当前延迟的比例
	SpreadRatio = 0.3
	// MaxSpread 抖动幅度上限
	MaxSpread = 200 * time.Millisecond
)

// Backoff 计算第 attempt 次失败后的等待时间。
// attempt 从 1 开始。
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// BackoffFunc 函数形式的 Backoff。
type BackoffFunc func(attempt int) time.Duration

// NextDelay 实现 Backoff。
func (f BackoffFunc) NextDelay(attempt int) time.Duration {
	return f(attempt)
}

// ExponentialBackoff 封顶的指数退避，可选扩散抖动。
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	jitter       bool
	random       func() float64
}

// ExponentialBackoffOption 指数退避配置选项
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置首次等待时间，d < 0 时忽略。
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d >= 0 {
			b.initialDelay = d
		}
	}
}

// WithMaxDelay 设置等待上限，d <= 0 时忽略。
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithFactor 设置增长因子（>= 1），小于 1 的值被忽略。
func WithFactor(f float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if f >= 1 && !math.IsInf(f, 0) {
			b.factor = f
		}
	}
}

// WithJitter 设置是否启用扩散抖动。
func WithJitter(enabled bool) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = enabled
	}
}

// WithRandom 替换 [0,1) 随机数来源，主要用于测试。
func WithRandom(fn func() float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if fn != nil {
			b.random = fn
		}
	}
}

// NewExponentialBackoff 创建指数退避。
// 默认值：
//   - initialDelay: 300ms
//   - maxDelay: 3s
//   - factor: 2
//   - jitter: 启用
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 300 * time.Millisecond,
		maxDelay:     3 * time.Second,
		factor:       2,
		jitter:       true,
		random:       randomFloat64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BaseDelay 返回第 attempt 次失败后的未抖动延迟：min(initial * factor^(attempt-1), max)。
func (b *ExponentialBackoff) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.initialDelay) * math.Pow(b.factor, float64(attempt-1))
	// attempt 极大时 Pow 溢出为 +Inf
	if math.IsNaN(delay) || delay >= float64(b.maxDelay) {
		return b.maxDelay
	}
	return time.Duration(delay)
}

// NextDelay 返回第 attempt 次失败后的等待时间，结果落在 [0, maxDelay]。
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := b.BaseDelay(attempt)
	if b.jitter {
		delay = spread(delay, b.random())
	}
	if delay > b.maxDelay {
		return b.maxDelay
	}
	return delay
}

// Spread 对 d 施加扩散抖动：d + (2r-1) * min(30% * d, 200ms)，结果不小于 0。
func Spread(d time.Duration) time.Duration {
	return spread(d, randomFloat64())
}

func spread(d time.Duration, r float64) time.Duration {
	width := min(time.Duration(float64(d)*SpreadRatio), MaxSpread)
	out := d + time.Duration((r*2-1)*float64(width))
	if out < 0 {
		return 0
	}
	return out
}

// NoBackoff 无等待退避
type NoBackoff struct{}

// NextDelay 始终返回 0。
func (NoBackoff) NextDelay(int) time.Duration { return 0 }

var (
	_ Backoff = (*ExponentialBackoff)(nil)
	_ Backoff = NoBackoff{}
	_ Backoff = BackoffFunc(nil)
)

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// 读取失败时返回 0.5，即无抖动
		return 0.5
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
