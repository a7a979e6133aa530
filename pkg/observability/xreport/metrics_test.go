package xreport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func TestMetricsReporter(t *testing.T) {
	_, err := NewMetricsReporter(nil)
	assert.ErrorIs(t, err, ErrNilClient)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := xmetrics.NewFailureCounter(xmetrics.WithMeterProvider(mp))
	require.NoError(t, err)
	r, err := NewMetricsReporter(counter)
	require.NoError(t, err)

	ctx := context.Background()
	r.Report(ctx, retryingInfo("load"))
	r.Report(ctx, NewErrorInfo("load", xfault.NewStatusError(500)))
	r.Report(ctx, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.EqualValues(t, 1, sum.DataPoints[0].Value)
}

func TestDecisionLabel(t *testing.T) {
	assert.Equal(t, xmetrics.DecisionRetry, decisionLabel(Decision{ShouldRetry: true, HasFallback: true}))
	assert.Equal(t, xmetrics.DecisionFallback, decisionLabel(Decision{HasFallback: true}))
	assert.Equal(t, xmetrics.DecisionDegrade, decisionLabel(Decision{HasDegrade: true}))
	assert.Equal(t, xmetrics.DecisionGiveUp, decisionLabel(Decision{}))
}
