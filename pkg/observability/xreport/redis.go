package xreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisSink 默认值
const (
	DefaultRedisKey    = "xloadkit:errors"
	DefaultRedisMaxLen = 100
	// DefaultRedisTimeout Report 单次写入的上限，超时的报告被放弃
	DefaultRedisTimeout = 200 * time.Millisecond
)

// ErrRateLimited 报告因限流被丢弃
var ErrRateLimited = errors.New("xreport: report rate limited")

// RedisSink 将报告以 JSON 写入 Redis 列表（最新在前），并裁剪到固定长度。
//
// 可选按操作名限流，防止持续失败的操作刷满列表。
type RedisSink struct {
	client  redis.UniversalClient
	key     string
	maxLen  int64
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	timeout time.Duration
	onError func(error)
}

// RedisOption RedisSink 配置选项
type RedisOption func(*RedisSink)

// WithKey 设置列表 key。
func WithKey(key string) RedisOption {
	return func(s *RedisSink) {
		s.key = key
	}
}

// WithMaxLen 设置列表长度上限，n < 1 时忽略。
func WithMaxLen(n int) RedisOption {
	return func(s *RedisSink) {
		if n >= 1 {
			s.maxLen = int64(n)
		}
	}
}

// WithRateLimit 每个操作每分钟最多写入 perMinute 条，perMinute < 1 时不限流。
func WithRateLimit(perMinute int) RedisOption {
	return func(s *RedisSink) {
		if perMinute >= 1 {
			s.limit = redis_rate.PerMinute(perMinute)
			s.limiter = redis_rate.NewLimiter(s.client)
		}
	}
}

// WithTimeout 设置 Report 单次写入的超时，d <= 0 时忽略。
// 客户端需开启 ContextTimeoutEnabled，超时才会作用到 socket 读写。
func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithOnError 设置 Report 写入失败时的回调。限流丢弃不触发回调。
func WithOnError(fn func(error)) RedisOption {
	return func(s *RedisSink) {
		s.onError = fn
	}
}

// NewRedisSink 创建 RedisSink。
func NewRedisSink(client redis.UniversalClient, opts ...RedisOption) (*RedisSink, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &RedisSink{
		client: client,
		key:    DefaultRedisKey,
		maxLen:  DefaultRedisMaxLen,
		timeout: DefaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.key == "" {
		return nil, ErrEmptyKey
	}
	return s, nil
}

// Key 返回列表 key。
func (s *RedisSink) Key() string { return s.key }

// Push 写入一条报告。被限流时返回 ErrRateLimited。
func (s *RedisSink) Push(ctx context.Context, info *ErrorInfo) error {
	if info == nil {
		return ErrNilInfo
	}
	if s.limiter != nil {
		res, err := s.limiter.Allow(ctx, s.key+":rate:"+info.Operation, s.limit)
		if err != nil {
			return fmt.Errorf("xreport: rate limit: %w", err)
		}
		if res.Allowed == 0 {
			return ErrRateLimited
		}
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("xreport: encode report: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xreport: push report: %w", err)
	}
	return nil
}

// Report 实现 Reporter，最多阻塞调用方 timeout，写入失败交给 onError。
func (s *RedisSink) Report(ctx context.Context, info *ErrorInfo) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.Push(ctx, info)
	if err == nil || errors.Is(err, ErrRateLimited) {
		return
	}
	if s.onError != nil {
		s.onError(err)
	}
}

// Recent 读取最近 n 条报告，最新在前。无法解析的条目被跳过。
func (s *RedisSink) Recent(ctx context.Context, n int) ([]*ErrorInfo, error) {
	if n < 1 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("xreport: read reports: %w", err)
	}
	out := make([]*ErrorInfo, 0, len(raw))
	for _, item := range raw {
		var info ErrorInfo
		if json.Unmarshal([]byte(item), &info) != nil {
			continue
		}
		out = append(out, &info)
	}
	return out, nil
}

// Clear 删除所有报告。
func (s *RedisSink) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("xreport: clear reports: %w", err)
	}
	return nil
}

var _ Reporter = (*RedisSink)(nil)
