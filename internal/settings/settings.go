// Package settings 定义 xloadctl 的配置结构，负责加载、校验和热重载。
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xloadkit/pkg/config/xconf"
	"github.com/omeyang/xloadkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
	"github.com/omeyang/xloadkit/pkg/state/xloadable"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid 配置校验失败
var ErrInvalid = errors.New("settings: invalid")

// Log 日志配置
type Log struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Breaker 熔断配置
type Breaker struct {
	Enabled             bool          `koanf:"enabled"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
	Timeout             time.Duration `koanf:"timeout"`
}

// Report 报告配置
type Report struct {
	History       int     `koanf:"history"`
	LogSampleRate float64 `koanf:"log_sample_rate"`
}

// Redis 错误历史的 Redis 配置，Addr 为空表示不启用。
type Redis struct {
	Addr          string        `koanf:"addr"`
	Key           string        `koanf:"key"`
	History       int           `koanf:"history"`
	RatePerMinute int           `koanf:"rate_per_minute"`
	Timeout       time.Duration `koanf:"timeout"`
}

// Watch 定时探测配置
type Watch struct {
	Schedule string `koanf:"schedule"`
}

// Settings 完整配置
type Settings struct {
	Log     Log                      `koanf:"log"`
	Policy  map[string]xrecover.Rule `koanf:"policy"`
	Load    xloadable.Config         `koanf:"load"`
	Breaker Breaker                  `koanf:"breaker"`
	Report  Report                   `koanf:"report"`
	Redis   Redis                    `koanf:"redis"`
	Watch   Watch                    `koanf:"watch"`
}

// Default 返回内置默认配置。
func Default() *Settings {
	s, err := decode(xconf.NewFromBytes(defaultsYAML, xconf.FormatYAML))
	if err != nil {
		panic(fmt.Sprintf("settings: embedded defaults: %v", err))
	}
	return s
}

// Load 读取 path 并叠加在默认配置之上，path 为空时返回默认配置。
func Load(path string) (*Settings, xconf.Config, error) {
	if path == "" {
		cfg, err := xconf.NewFromBytes(defaultsYAML, xconf.FormatYAML)
		if err != nil {
			return nil, nil, err
		}
		s, err := decode(cfg, nil)
		return s, cfg, err
	}
	cfg, err := xconf.New(path, xconf.WithDefaults(defaultsYAML, xconf.FormatYAML))
	if err != nil {
		return nil, nil, err
	}
	s, err := decode(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// FromConfig 从已加载的配置解码，用于热重载回调。
func FromConfig(cfg xconf.Config) (*Settings, error) {
	return decode(cfg, nil)
}

func decode(cfg xconf.Config, err error) (*Settings, error) {
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := cfg.Unmarshal("", &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 校验取值范围，策略表的分类名和规则在这里解析。
func (s *Settings) Validate() error {
	var errs []error
	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log.format %q", ErrInvalid, s.Log.Format))
	}
	if _, err := xrecover.ParseTable(s.Policy); err != nil {
		errs = append(errs, fmt.Errorf("%w: policy: %w", ErrInvalid, err))
	}
	if s.Load.Attempts < 1 {
		errs = append(errs, fmt.Errorf("%w: load.attempts %d < 1", ErrInvalid, s.Load.Attempts))
	}
	if s.Report.LogSampleRate < 0 || s.Report.LogSampleRate > 1 {
		errs = append(errs, fmt.Errorf("%w: report.log_sample_rate %v", ErrInvalid, s.Report.LogSampleRate))
	}
	if s.Redis.Addr != "" && s.Redis.Key == "" {
		errs = append(errs, fmt.Errorf("%w: redis.key is empty", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Table 返回默认表被配置覆盖后的策略表。
func (s *Settings) Table() xrecover.Table {
	t, err := xrecover.ParseTable(s.Policy)
	if err != nil {
		// Validate 已保证可解析
		return xrecover.DefaultTable()
	}
	return xrecover.DefaultTable().Merge(t)
}

// LoadOptions 返回 Controller 的默认加载选项。
func (s *Settings) LoadOptions() []xloadable.LoadOption {
	return s.Load.Options()
}

// NewBreaker 按配置创建熔断器，未启用时返回 nil。
func (s *Settings) NewBreaker(name string, opts ...xbreaker.BreakerOption) *xbreaker.Breaker {
	if !s.Breaker.Enabled {
		return nil
	}
	all := []xbreaker.BreakerOption{
		xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(s.Breaker.ConsecutiveFailures)),
		xbreaker.WithTimeout(s.Breaker.Timeout),
	}
	return xbreaker.NewBreaker(name, append(all, opts...)...)
}
