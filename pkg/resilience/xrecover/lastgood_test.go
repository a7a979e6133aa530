package xrecover

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func newLastGood[T any](t *testing.T, opts ...LastGoodOption) *LastGood[T] {
	t.Helper()
	lg, err := NewLastGood[T](opts...)
	require.NoError(t, err)
	t.Cleanup(lg.Close)
	return lg
}

func TestLastGood(t *testing.T) {
	t.Run("RememberLookupForget", func(t *testing.T) {
		lg := newLastGood[string](t, WithMaxItems(8))

		_, ok := lg.Lookup("scene")
		assert.False(t, ok)

		require.True(t, lg.Remember("scene", "v1"))
		v, ok := lg.Lookup("scene")
		require.True(t, ok)
		assert.Equal(t, "v1", v)

		lg.Remember("scene", "v2")
		v, _ = lg.Lookup("scene")
		assert.Equal(t, "v2", v)

		lg.Forget("scene")
		_, ok = lg.Lookup("scene")
		assert.False(t, ok)
	})

	t.Run("HoldsMaxItems", func(t *testing.T) {
		lg := newLastGood[int](t, WithMaxItems(32))
		for i := range 32 {
			require.True(t, lg.Remember(fmt.Sprintf("op-%d", i), i))
		}
		for i := range 32 {
			v, ok := lg.Lookup(fmt.Sprintf("op-%d", i))
			require.True(t, ok, "op-%d evicted", i)
			assert.Equal(t, i, v)
		}
	})

	t.Run("DefaultCapacity", func(t *testing.T) {
		lg := newLastGood[int](t)
		for i := range 100 {
			lg.Remember(fmt.Sprintf("op-%d", i), i)
		}
		kept := 0
		for i := range 100 {
			if _, ok := lg.Lookup(fmt.Sprintf("op-%d", i)); ok {
				kept++
			}
		}
		assert.Equal(t, 100, kept)
	})

	t.Run("PolicyKeepsRetries", func(t *testing.T) {
		lg := newLastGood[int](t)
		lg.Remember("load", 1)

		p := lg.Policy("load", nil)
		d := p(xfault.CategoryNetwork, 1)
		assert.True(t, d.ShouldRetry)
		assert.Nil(t, d.Fallback)

		d = p(xfault.CategoryNetwork, 3)
		require.NotNil(t, d.Fallback)
		assert.Equal(t, 1, *d.Fallback)
		assert.Equal(t, "serving last good value", d.Reason)
	})

	t.Run("PolicyKeepsExplicitFallback", func(t *testing.T) {
		lg := newLastGood[int](t)
		lg.Remember("load", 1)

		p := lg.Policy("load", func(xfault.Category, int) Decision[int] {
			return Decision[int]{}.WithFallback(9)
		})
		assert.Equal(t, 9, *p(xfault.CategoryUnknown, 1).Fallback)
	})

	t.Run("RunServesLastGood", func(t *testing.T) {
		lg := newLastGood[string](t)
		ctx := context.Background()
		var reasons []string
		e := NewExecutor(WithReporter(xreport.ReporterFunc(func(_ context.Context, info *xreport.ErrorInfo) {
			reasons = append(reasons, info.Failure.Decision.Reason)
		})))

		v, err := lg.Run(ctx, e, "profile", func(context.Context) (string, error) {
			return "alice", nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "alice", v)

		notFound := xfault.NewStatusError(404)
		v, err = lg.Run(ctx, e, "profile", func(context.Context) (string, error) {
			return "", notFound
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "alice", v)
		assert.Equal(t, []string{"serving last good value"}, reasons)
	})

	t.Run("RunWithoutHistory", func(t *testing.T) {
		lg := newLastGood[string](t)
		boom := errors.New("boom")
		_, err := lg.Run(context.Background(), nil, "profile", func(context.Context) (string, error) {
			return "", boom
		}, nil)
		assert.ErrorIs(t, err, boom)

		_, err = lg.Run(context.Background(), nil, "profile", nil, nil)
		assert.ErrorIs(t, err, ErrNilOperation)
	})
}
