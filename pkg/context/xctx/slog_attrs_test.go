package xctx_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestTraceAttrs(t *testing.T) {
	assert.Nil(t, xctx.TraceAttrs(context.Background()))

	var nilCtx context.Context
	assert.Nil(t, xctx.TraceAttrs(nilCtx))
	assert.Empty(t, xctx.AppendTraceAttrs(nil, nilCtx))

	ctx, err := xctx.WithTrace(context.Background(), xctx.Trace{TraceID: "t", SpanID: "s"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"trace_id": "t", "span_id": "s"}, attrMap(xctx.TraceAttrs(ctx)))
}

func TestLogAttrs(t *testing.T) {
	assert.Nil(t, xctx.LogAttrs(context.Background()))

	ctx, err := xctx.WithTraceID(context.Background(), "t")
	require.NoError(t, err)
	ctx, err = xctx.WithCall(ctx, xctx.Call{Operation: "load", Attempt: 2})
	require.NoError(t, err)

	attrs := xctx.LogAttrs(ctx)
	require.Len(t, attrs, 3)
	assert.Equal(t, "trace_id", attrs[0].Key)
	assert.Equal(t, "operation", attrs[1].Key)
	assert.Equal(t, "load", attrs[1].Value.String())
	assert.Equal(t, "attempt", attrs[2].Key)
	assert.Equal(t, int64(2), attrs[2].Value.Int64())
}

func BenchmarkAppendCallAttrs(b *testing.B) {
	ctx, _ := xctx.WithCall(context.Background(), xctx.Call{Operation: "load", Attempt: 1})
	var buf [8]slog.Attr
	for b.Loop() {
		_ = xctx.AppendCallAttrs(buf[:0], ctx)
	}
}
