package xctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

func otelContext(t *testing.T) context.Context {
	t.Helper()
	tid, err := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTraceFields(t *testing.T) {
	tests := []struct {
		name   string
		setter func(context.Context, string) (context.Context, error)
		getter func(context.Context) string
	}{
		{"TraceID", xctx.WithTraceID, xctx.TraceID},
		{"SpanID", xctx.WithSpanID, xctx.SpanID},
		{"RequestID", xctx.WithRequestID, xctx.RequestID},
		{"TraceFlags", xctx.WithTraceFlags, xctx.TraceFlags},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.getter(context.Background()))

			ctx, err := tt.setter(context.Background(), "v1")
			require.NoError(t, err)
			assert.Equal(t, "v1", tt.getter(ctx))

			ctx, err = tt.setter(ctx, "v2")
			require.NoError(t, err)
			assert.Equal(t, "v2", tt.getter(ctx))

			var nilCtx context.Context
			assert.Empty(t, tt.getter(nilCtx))
			_, err = tt.setter(nilCtx, "v")
			assert.ErrorIs(t, err, xctx.ErrNilContext)
		})
	}
}

func TestTrace_OtelFallback(t *testing.T) {
	ctx := otelContext(t)

	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", xctx.TraceID(ctx))
	assert.Equal(t, "b7ad6b7169203331", xctx.SpanID(ctx))
	assert.Equal(t, "01", xctx.TraceFlags(ctx))
	assert.Empty(t, xctx.RequestID(ctx))

	// 显式注入优先
	ctx, err := xctx.WithTraceID(ctx, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", xctx.TraceID(ctx))
}

func TestRequireTrace(t *testing.T) {
	ctx := context.Background()

	_, err := xctx.RequireTraceID(ctx)
	assert.ErrorIs(t, err, xctx.ErrMissingTraceID)
	_, err = xctx.RequireSpanID(ctx)
	assert.ErrorIs(t, err, xctx.ErrMissingSpanID)
	_, err = xctx.RequireRequestID(ctx)
	assert.ErrorIs(t, err, xctx.ErrMissingRequestID)

	var nilCtx context.Context
	_, err = xctx.RequireTraceID(nilCtx)
	assert.ErrorIs(t, err, xctx.ErrNilContext)

	ctx, err = xctx.EnsureTrace(ctx)
	require.NoError(t, err)
	v, err := xctx.RequireTraceID(ctx)
	require.NoError(t, err)
	assert.Len(t, v, 32)
}

func TestGenerateIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := xctx.GenerateTraceID()
		assert.Len(t, id, 32)
		assert.NotEqual(t, "00000000000000000000000000000000", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)

	assert.Len(t, xctx.GenerateSpanID(), 16)
	assert.Len(t, xctx.GenerateRequestID(), 32)
}

func TestEnsureTrace(t *testing.T) {
	t.Run("GeneratesMissing", func(t *testing.T) {
		ctx, err := xctx.EnsureTrace(context.Background())
		require.NoError(t, err)
		tr := xctx.GetTrace(ctx)
		assert.True(t, tr.IsComplete())
		assert.Empty(t, tr.TraceFlags)
	})

	t.Run("KeepsExisting", func(t *testing.T) {
		ctx, err := xctx.WithTrace(context.Background(), xctx.Trace{TraceID: "t-1", RequestID: "r-1"})
		require.NoError(t, err)
		ctx, err = xctx.EnsureTrace(ctx)
		require.NoError(t, err)

		tr := xctx.GetTrace(ctx)
		assert.Equal(t, "t-1", tr.TraceID)
		assert.Equal(t, "r-1", tr.RequestID)
		assert.Len(t, tr.SpanID, 16)
	})

	t.Run("UsesOtelSpan", func(t *testing.T) {
		ctx, err := xctx.EnsureTrace(otelContext(t))
		require.NoError(t, err)
		assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", xctx.TraceID(ctx))
		assert.Equal(t, "b7ad6b7169203331", xctx.SpanID(ctx))
	})

	t.Run("NilContext", func(t *testing.T) {
		var nilCtx context.Context
		_, err := xctx.EnsureTrace(nilCtx)
		assert.ErrorIs(t, err, xctx.ErrNilContext)
		_, err = xctx.WithTrace(nilCtx, xctx.Trace{})
		assert.ErrorIs(t, err, xctx.ErrNilContext)
	})
}
