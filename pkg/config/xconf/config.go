package xconf

import "github.com/knadh/koanf/v2"

// Format 配置格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 已加载的配置。所有方法并发安全。
type Config interface {
	// Client 返回当前 koanf 快照。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置解码到 target，path 为空时解码全部。
	// target 中已有的值在配置缺失对应键时保留，可先填入默认值。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件，失败时保留旧配置。
	Reload() error

	// Path 返回配置文件路径，从字节创建时为空。
	Path() string

	Format() Format
}

// MustUnmarshal 同 Config.Unmarshal，失败时 panic，用于启动阶段。
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
