// Package xconf 基于 koanf 加载 YAML/JSON 配置，支持默认值分层和文件热重载。
//
// 配置由两层合并而成：WithDefaults 给出的默认数据在下，配置文件在上。
// Reload 重新读取文件并原子替换整个 koanf 实例，读者看到的要么是旧配置要么是新配置。
//
// Client() 返回的实例是快照，Reload 之后仍可使用但数据已过期，
// 需要最新配置时重新调用 Client() 或 Unmarshal。
//
// Watch 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 防抖后调用 Reload 并通知回调：
//
//	cfg, err := xconf.New("/etc/xloadkit/config.yaml", xconf.WithDefaults(defaults, xconf.FormatYAML))
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	go w.Run(ctx)
//	defer w.Close()
package xconf
