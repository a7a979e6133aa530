package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 失败后的处置，对应 decision 属性
const (
	DecisionRetry    = "retry"
	DecisionFallback = "fallback"
	DecisionDegrade  = "degrade"
	DecisionGiveUp   = "give_up"
)

// FailureCounter 按操作、分类和处置统计失败次数（xloadkit.failure.total）。
type FailureCounter struct {
	counter metric.Int64Counter
}

// NewFailureCounter 创建 FailureCounter，默认使用全局 MeterProvider。
func NewFailureCounter(opts ...Option) (*FailureCounter, error) {
	cfg := newConfig(opts)
	counter, err := cfg.meterProvider.Meter(cfg.instrumentationName).Int64Counter(metricFailureTotal,
		metric.WithDescription("classified operation failures"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	return &FailureCounter{counter: counter}, nil
}

// Record 记录一次失败。
func (c *FailureCounter) Record(ctx context.Context, operation, category, decision string) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.counter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("operation", nonEmpty(operation)),
		attribute.String("category", nonEmpty(category)),
		attribute.String("decision", nonEmpty(decision)),
	))
}
