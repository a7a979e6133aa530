package xrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认值
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 14
	DefaultCompress   = true

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

type lumberjackConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

// LumberjackOption lumberjack 配置选项
type LumberjackOption func(*lumberjackConfig)

// WithMaxSize 单个文件最大 MB 数
func WithMaxSize(mb int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxSizeMB = mb }
}

// WithMaxBackups 保留的备份数，0 表示只按天数清理
func WithMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxBackups = n }
}

// WithMaxAge 备份保留天数，0 表示只按数量清理
func WithMaxAge(days int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxAgeDays = days }
}

// WithCompress 是否 gzip 压缩备份
func WithCompress(compress bool) LumberjackOption {
	return func(c *lumberjackConfig) { c.compress = compress }
}

// WithLocalTime 备份文件名使用本地时间，默认 UTC
func WithLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) { c.localTime = local }
}

type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的 Rotator，父目录不存在时以 0750 创建。
func NewLumberjack(filename string, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := lumberjackConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   DefaultCompress,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xrotate: create log dir: %w", err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
	}, nil
}

func (c *lumberjackConfig) validate() error {
	switch {
	case c.maxSizeMB <= 0 || c.maxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.maxSizeMB, maxSizeMB)
	case c.maxBackups < 0 || c.maxBackups > maxBackups:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.maxBackups, maxBackups)
	case c.maxAgeDays < 0 || c.maxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.maxAgeDays, maxAgeDays)
	case c.maxBackups == 0 && c.maxAgeDays == 0:
		return ErrNoCleanupPolicy
	}
	return nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil && r.closed.Load() {
		// Write 期间被并发 Close
		return n, ErrClosed
	}
	return n, err
}

func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return nil
}
