// Package notify 提供同步、有序的快照订阅分发。
package notify

import (
	"slices"
	"sync"
)

// Hub 向订阅者分发快照。
//
// Publish 之间串行执行，订阅者按订阅顺序同步收到快照，
// 观察到的顺序与 Publish 顺序一致。订阅者 panic 会被吞掉。
// 订阅者内部可以调用取消函数，但不能同步调用同一 Hub 的 Publish/Subscribe。
type Hub[T any] struct {
	publishMu sync.Mutex

	mu     sync.Mutex
	subs   map[uint64]func(T)
	nextID uint64
}

// Subscribe 注册 fn，立即以 current() 的结果调用一次，返回幂等的取消函数。
func (h *Hub[T]) Subscribe(current func() T, fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uint64]func(T))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	safeCall(fn, current())

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish 执行 mutate 并把其返回的快照分发给所有订阅者。
func (h *Hub[T]) Publish(mutate func() T) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	snap := mutate()
	for _, fn := range h.ordered() {
		safeCall(fn, snap)
	}
}

// Len 返回当前订阅者数量。
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) ordered() []func(T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = h.subs[id]
	}
	return fns
}

func safeCall[T any](fn func(T), v T) {
	defer func() { _ = recover() }()
	fn(v)
}
