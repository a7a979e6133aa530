package xloadable

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry 按资源键管理 Controller，超出容量时淘汰最久未使用的。
//
// 被淘汰的 Controller 仍可被持有者继续使用，只是不再由 Registry 返回。
type Registry[T any] struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Controller[T]]
	opts  []Option
}

// NewRegistry 创建容量为 size 的 Registry，opts 用于创建每个 Controller。
func NewRegistry[T any](size int, opts ...Option) (*Registry[T], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	cache, err := lru.New[string, *Controller[T]](size)
	if err != nil {
		return nil, fmt.Errorf("xloadable: create registry: %w", err)
	}
	return &Registry[T]{cache: cache, opts: opts}, nil
}

// Get 返回 key 对应的 Controller，不存在时创建。
func (r *Registry[T]) Get(key string) *Controller[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cache.Get(key); ok {
		return c
	}
	c := New[T](r.opts...)
	r.cache.Add(key, c)
	return c
}

// Peek 返回已存在的 Controller，不更新使用顺序。
func (r *Registry[T]) Peek(key string) (*Controller[T], bool) {
	return r.cache.Peek(key)
}

// Remove 移除 key，返回是否存在。
func (r *Registry[T]) Remove(key string) bool {
	return r.cache.Remove(key)
}

// Len 返回当前数量。
func (r *Registry[T]) Len() int {
	return r.cache.Len()
}

// Keys 按从旧到新的顺序返回所有键。
func (r *Registry[T]) Keys() []string {
	return r.cache.Keys()
}

// Snapshot 返回所有 Controller 的当前状态。
func (r *Registry[T]) Snapshot() map[string]State[T] {
	keys := r.cache.Keys()
	out := make(map[string]State[T], len(keys))
	for _, k := range keys {
		if c, ok := r.cache.Peek(k); ok {
			out[k] = c.State()
		}
	}
	return out
}
