package settings

import (
	"context"

	"github.com/omeyang/xloadkit/pkg/config/xconf"
	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
)

// Reloader 把配置文件的变更应用到运行中的组件。
//
// 目前热更新策略表和日志级别，其余配置需要重启生效。
type Reloader struct {
	Table  *xrecover.TableHolder
	Level  xlog.Leveler
	Logger xlog.Logger
}

// Apply 应用新配置。
func (r *Reloader) Apply(ctx context.Context, s *Settings) {
	if r.Table != nil {
		r.Table.Store(s.Table())
	}
	if r.Level != nil {
		if lvl, err := xlog.ParseLevel(s.Log.Level); err == nil {
			r.Level.SetLevel(lvl)
		}
	}
	if r.Logger != nil {
		r.Logger.Info(ctx, "settings reloaded", xlog.Component("settings"))
	}
}

// Watch 监视 cfg 对应的文件直到 ctx 结束。解析失败的变更被记录并忽略。
func (r *Reloader) Watch(ctx context.Context, cfg xconf.Config) error {
	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		if err == nil {
			var s *Settings
			if s, err = FromConfig(c); err == nil {
				r.Apply(ctx, s)
				return
			}
		}
		if r.Logger != nil {
			r.Logger.Warn(ctx, "settings reload failed", xlog.Component("settings"), xlog.Err(err))
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return w.Run(ctx)
}
