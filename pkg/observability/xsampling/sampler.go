package xsampling

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Sampler 采样策略，返回 true 表示保留该事件。
type Sampler interface {
	ShouldSample(ctx context.Context) bool
}

// SamplerFunc 函数形式的 Sampler
type SamplerFunc func(ctx context.Context) bool

// ShouldSample 实现 Sampler。
func (f SamplerFunc) ShouldSample(ctx context.Context) bool { return f(ctx) }

// Always 全采样。
func Always() Sampler { return SamplerFunc(func(context.Context) bool { return true }) }

// Never 不采样。
func Never() Sampler { return SamplerFunc(func(context.Context) bool { return false }) }

// RateSampler 固定比率随机采样
type RateSampler struct {
	rate float64
}

// NewRateSampler 创建比率采样器，rate 须在 [0, 1]。
func NewRateSampler(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

// ShouldSample 实现 Sampler。
func (s *RateSampler) ShouldSample(context.Context) bool {
	return sampleAt(s.rate, randomFloat64)
}

// Rate 返回采样比率。
func (s *RateSampler) Rate() float64 { return s.rate }

// CountSampler 每 n 个事件采样 1 个（第 1、n+1、2n+1... 个）。
type CountSampler struct {
	n       uint64
	counter atomic.Uint64
}

// NewCountSampler 创建计数采样器，n < 1 时返回 ErrInvalidCount。
func NewCountSampler(n int) (*CountSampler, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	return &CountSampler{n: uint64(n)}, nil
}

// ShouldSample 实现 Sampler。零值实例全采样。
func (s *CountSampler) ShouldSample(context.Context) bool {
	if s.n == 0 {
		return true
	}
	return (s.counter.Add(1)-1)%s.n == 0
}

// Reset 重置计数器。
func (s *CountSampler) Reset() { s.counter.Store(0) }

func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}

func sampleAt(rate float64, random func() float64) bool {
	switch {
	case rate <= 0:
		return false
	case rate >= 1:
		return true
	default:
		return random() < rate
	}
}

const floatScale = 1.0 / (1 << 53)

// randomFloat64 返回 [0, 1) 随机数。熵源不可用时 panic。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("xsampling: crypto/rand.Read failed: " + err.Error())
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}

var (
	_ Sampler = SamplerFunc(nil)
	_ Sampler = (*RateSampler)(nil)
	_ Sampler = (*CountSampler)(nil)
)
