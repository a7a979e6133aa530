package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 重载后调用，err 非 nil 表示重载或监视失败（此时配置保持旧值）。
type WatchCallback func(cfg Config, err error)

// WatchOption 监视选项
type WatchOption func(*Watcher)

// WithDebounce 防抖时间，窗口内的多次变更只触发一次重载。d <= 0 时忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器
type Watcher struct {
	cfg      Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	filename string

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Watch 为从文件创建的 cfg 创建监视器。调用 Run 开始监视，Close 释放资源。
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(cfg.Path())
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fs.Close())
	}
	w := &Watcher{
		cfg:      cfg,
		fs:       fs,
		callback: callback,
		debounce: DefaultDebounce,
		filename: filepath.Base(cfg.Path()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run 处理文件事件直到 ctx 结束或 Close，返回 ctx.Err() 或 ErrWatcherClosed。
// 返回时待触发的重载已取消，之后不会再调用回调。
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return ErrWatcherClosed
		case ev, ok := <-w.fs.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.notify(w.cfg.Reload())
		case err, ok := <-w.fs.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.notify(fmt.Errorf("xconf: watch: %w", err))
		}
	}
}

// relevant 只关心目标文件的写入、创建和 rename（原子保存）。
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != w.filename {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) notify(err error) {
	if w.callback != nil {
		w.callback(w.cfg, err)
	}
}

// Close 停止监视，可重复调用。
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}
