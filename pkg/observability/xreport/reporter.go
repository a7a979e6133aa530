package xreport

import "context"

//go:generate mockgen -destination=xreportmock/reporter.go -package=xreportmock . Reporter

// Reporter 接收失败报告。
//
// 实现不应阻塞过久，也不应修改 info；调用方不关心投递结果。
type Reporter interface {
	Report(ctx context.Context, info *ErrorInfo)
}

// ReporterFunc 函数形式的 Reporter
type ReporterFunc func(ctx context.Context, info *ErrorInfo)

// Report 实现 Reporter。
func (f ReporterFunc) Report(ctx context.Context, info *ErrorInfo) {
	f(ctx, info)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, *ErrorInfo) {}

// Nop 丢弃所有报告。
func Nop() Reporter { return nopReporter{} }

// Safe 调用 r.Report 并吞掉其 panic，返回是否正常完成。
// r 或 info 为 nil 时直接返回 true。
func Safe(ctx context.Context, r Reporter, info *ErrorInfo) (ok bool) {
	if r == nil || info == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	r.Report(ctx, info)
	return true
}

type multiReporter []Reporter

func (m multiReporter) Report(ctx context.Context, info *ErrorInfo) {
	for _, r := range m {
		Safe(ctx, r, info)
	}
}

// Multi 按顺序扇出到多个 Reporter，跳过 nil；单个 sink panic 不影响后续 sink。
func Multi(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r == nil {
			continue
		}
		if m, ok := r.(multiReporter); ok {
			out = append(out, m...)
			continue
		}
		out = append(out, r)
	}
	switch len(out) {
	case 0:
		return Nop()
	case 1:
		return out[0]
	default:
		return out
	}
}
