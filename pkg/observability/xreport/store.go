package xreport

import (
	"context"
	"slices"
	"sync"

	"github.com/omeyang/xloadkit/internal/notify"
)

// DefaultHistoryLimit Store 默认保留的历史条数
const DefaultHistoryLimit = 10

// Snapshot Store 的只读快照
type Snapshot struct {
	Current *ErrorInfo
	// History 最新在前
	History []*ErrorInfo
}

// StoreOption Store 配置选项
type StoreOption func(*Store)

// WithHistoryLimit 设置历史条数上限，n < 1 时忽略。
func WithHistoryLimit(n int) StoreOption {
	return func(s *Store) {
		if n >= 1 {
			s.limit = n
		}
	}
}

// Store 内存错误存储：当前错误 + 有界历史。
//
// 订阅者在订阅时立即收到当前快照，之后每次变更同步收到新快照，顺序与变更顺序一致。
type Store struct {
	mu      sync.Mutex
	current *ErrorInfo
	history []*ErrorInfo
	limit   int

	hub notify.Hub[Snapshot]
}

// NewStore 创建 Store。
func NewStore(opts ...StoreOption) *Store {
	s := &Store{limit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report 实现 Reporter：设为当前错误并插入历史头部，超出上限的旧条目被丢弃。
func (s *Store) Report(_ context.Context, info *ErrorInfo) {
	if info == nil {
		return
	}
	s.update(func() {
		s.current = info
		s.history = slices.Insert(s.history, 0, info)
		if len(s.history) > s.limit {
			clear(s.history[s.limit:])
			s.history = s.history[:s.limit]
		}
	})
}

// Current 返回当前错误，没有时返回 nil。
func (s *Store) Current() *ErrorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History 返回历史副本，最新在前。
func (s *Store) History() []*ErrorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Snapshot 返回当前快照。
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Current: s.current, History: slices.Clone(s.history)}
}

// Clear 清除当前错误，保留历史。
func (s *Store) Clear() {
	s.update(func() { s.current = nil })
}

// ClearAll 清除当前错误和历史。
func (s *Store) ClearAll() {
	s.update(func() {
		s.current = nil
		s.history = nil
	})
}

// Subscribe 注册订阅者并立即以当前快照调用一次，返回取消函数。
// 订阅者 panic 会被吞掉。订阅者内部可以调用取消函数，但不能同步修改 Store。
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	return s.hub.Subscribe(s.Snapshot, fn)
}

func (s *Store) update(mutate func()) {
	s.hub.Publish(func() Snapshot {
		s.mu.Lock()
		mutate()
		s.mu.Unlock()
		return s.Snapshot()
	})
}

var _ Reporter = (*Store)(nil)
