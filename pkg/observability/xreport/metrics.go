package xreport

import (
	"context"

	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
)

// MetricsReporter 将带 Failure 的报告计入 xloadkit.failure.total。
type MetricsReporter struct {
	counter *xmetrics.FailureCounter
}

// NewMetricsReporter 创建 MetricsReporter。
func NewMetricsReporter(counter *xmetrics.FailureCounter) (*MetricsReporter, error) {
	if counter == nil {
		return nil, ErrNilClient
	}
	return &MetricsReporter{counter: counter}, nil
}

// Report 实现 Reporter，没有 Failure 的报告不计数。
func (r *MetricsReporter) Report(ctx context.Context, info *ErrorInfo) {
	if info == nil || info.Failure == nil {
		return
	}
	f := info.Failure
	r.counter.Record(ctx, f.Operation, f.Category.String(), decisionLabel(f.Decision))
}

func decisionLabel(d Decision) string {
	switch {
	case d.ShouldRetry:
		return xmetrics.DecisionRetry
	case d.HasFallback:
		return xmetrics.DecisionFallback
	case d.HasDegrade:
		return xmetrics.DecisionDegrade
	default:
		return xmetrics.DecisionGiveUp
	}
}

var _ Reporter = (*MetricsReporter)(nil)
