package xsampling

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

// KeyFunc 从 context 提取采样 key。
type KeyFunc func(ctx context.Context) string

// KeyBasedSampler 按 key 一致性采样：同一 key 在同一 rate 下决策恒定，跨进程一致。
// key 为空时回退到随机采样。
type KeyBasedSampler struct {
	rate    float64
	keyFunc KeyFunc
}

// NewKeyBasedSampler 创建 key 采样器。
func NewKeyBasedSampler(rate float64, keyFunc KeyFunc) (*KeyBasedSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	return &KeyBasedSampler{rate: rate, keyFunc: keyFunc}, nil
}

// ByOperation 以 xctx 中的操作名为 key 的一致性采样器。
func ByOperation(rate float64) (*KeyBasedSampler, error) {
	return NewKeyBasedSampler(rate, xctx.Operation)
}

// ShouldSample 实现 Sampler。
func (s *KeyBasedSampler) ShouldSample(ctx context.Context) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	var key string
	if ctx != nil {
		key = s.keyFunc(ctx)
	}
	if key == "" {
		return randomFloat64() < s.rate
	}
	return float64(xxhash.Sum64String(key))/float64(math.MaxUint64) < s.rate
}

// Rate 返回采样比率。
func (s *KeyBasedSampler) Rate() float64 { return s.rate }

var _ Sampler = (*KeyBasedSampler)(nil)
