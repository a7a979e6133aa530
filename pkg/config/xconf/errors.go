package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")
	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	// ErrLoadFailed 读取配置失败
	ErrLoadFailed = errors.New("xconf: failed to load config")
	// ErrParseFailed 解析配置失败
	ErrParseFailed = errors.New("xconf: failed to parse config")
	// ErrUnmarshalFailed 反序列化失败
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")
	// ErrNotReloadable 配置不是从文件创建的
	ErrNotReloadable = errors.New("xconf: config is not backed by a file")
	// ErrWatcherClosed Watcher 已关闭
	ErrWatcherClosed = errors.New("xconf: watcher closed")
)
