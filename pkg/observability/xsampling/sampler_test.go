package xsampling

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

func TestAlwaysNever(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Always().ShouldSample(ctx))
	assert.False(t, Never().ShouldSample(ctx))
}

func TestRateSampler(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.1, math.NaN()} {
		_, err := NewRateSampler(bad)
		assert.ErrorIs(t, err, ErrInvalidRate)
	}

	zero, err := NewRateSampler(0)
	require.NoError(t, err)
	one, err := NewRateSampler(1)
	require.NoError(t, err)
	half, err := NewRateSampler(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, half.Rate(), 1e-9)

	ctx := context.Background()
	var hits int
	for range 2000 {
		assert.False(t, zero.ShouldSample(ctx))
		assert.True(t, one.ShouldSample(ctx))
		if half.ShouldSample(ctx) {
			hits++
		}
	}
	assert.InDelta(t, 1000, hits, 200)
}

func TestCountSampler(t *testing.T) {
	_, err := NewCountSampler(0)
	assert.ErrorIs(t, err, ErrInvalidCount)

	s, err := NewCountSampler(3)
	require.NoError(t, err)

	ctx := context.Background()
	var got []bool
	for range 7 {
		got = append(got, s.ShouldSample(ctx))
	}
	assert.Equal(t, []bool{true, false, false, true, false, false, true}, got)

	s.Reset()
	assert.True(t, s.ShouldSample(ctx))

	var zero CountSampler
	assert.True(t, zero.ShouldSample(ctx))
}

func TestKeyBasedSampler(t *testing.T) {
	_, err := NewKeyBasedSampler(0.5, nil)
	assert.ErrorIs(t, err, ErrNilKeyFunc)
	_, err = NewKeyBasedSampler(2, xctx.Operation)
	assert.ErrorIs(t, err, ErrInvalidRate)

	s, err := ByOperation(0.3)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, s.Rate(), 1e-9)

	t.Run("Deterministic", func(t *testing.T) {
		for i := range 50 {
			ctx, err := xctx.WithOperation(context.Background(), fmt.Sprintf("op-%d", i))
			require.NoError(t, err)
			first := s.ShouldSample(ctx)
			for range 5 {
				assert.Equal(t, first, s.ShouldSample(ctx))
			}
		}
	})

	t.Run("ApproximateRate", func(t *testing.T) {
		var hits int
		for i := range 5000 {
			ctx, _ := xctx.WithOperation(context.Background(), fmt.Sprintf("op-%d", i))
			if s.ShouldSample(ctx) {
				hits++
			}
		}
		assert.InDelta(t, 1500, hits, 300)
	})

	t.Run("Bounds", func(t *testing.T) {
		never, _ := ByOperation(0)
		always, _ := ByOperation(1)
		ctx, _ := xctx.WithOperation(context.Background(), "x")
		assert.False(t, never.ShouldSample(ctx))
		assert.True(t, always.ShouldSample(ctx))
	})

	t.Run("EmptyKeyFallsBackToRandom", func(t *testing.T) {
		var nilCtx context.Context
		assert.NotPanics(t, func() {
			_ = s.ShouldSample(nilCtx)
			_ = s.ShouldSample(context.Background())
		})
	})
}

func BenchmarkKeyBasedSampler(b *testing.B) {
	s, _ := ByOperation(0.1)
	ctx, _ := xctx.WithOperation(context.Background(), "load screen")
	for b.Loop() {
		_ = s.ShouldSample(ctx)
	}
}
