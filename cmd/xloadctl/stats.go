package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// 汇总打印的指标
const (
	metricOperationTotal = "xloadkit.operation.total"
	metricFailureTotal   = "xloadkit.failure.total"
)

// stats 进程内指标。enabled 为 false 时使用 noop provider。
type stats struct {
	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

func newStats(enabled bool) *stats {
	if !enabled {
		return &stats{provider: noop.NewMeterProvider()}
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &stats{provider: mp, sdk: mp, reader: reader}
}

// flush 打印计数并关闭 provider。
func (s *stats) flush(ctx context.Context, w io.Writer) error {
	if s.sdk == nil {
		return nil
	}
	defer func() { _ = s.sdk.Shutdown(ctx) }()

	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	for _, name := range []string{metricOperationTotal, metricFailureTotal} {
		lines := sumLines(rm, name)
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", name)
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	return nil
}

// sumLines 把计数器的数据点格式化为 "k=v,k=v count" 并排序。
func sumLines(rm metricdata.ResourceMetrics, name string) []string {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				lines = append(lines, fmt.Sprintf("%s %d", formatAttrs(dp.Attributes), dp.Value))
			}
		}
	}
	sort.Strings(lines)
	return lines
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}
