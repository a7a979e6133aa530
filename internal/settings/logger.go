package settings

import (
	"io"

	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xrotate"
)

// NewLogger 按日志配置创建 Logger。File 非空时写入轮转文件，否则写入 w。
func (l Log) NewLogger(w io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetLevelString(l.Level).
		SetFormat(l.Format)
	if l.File != "" {
		b = b.SetRotation(l.File,
			xrotate.WithMaxSize(l.MaxSizeMB),
			xrotate.WithMaxBackups(l.MaxBackups),
			xrotate.WithMaxAge(l.MaxAgeDays),
		)
	} else {
		b = b.SetOutput(w)
	}
	return b.Build()
}
