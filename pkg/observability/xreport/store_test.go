package xreport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("CurrentAndHistory", func(t *testing.T) {
		s := NewStore()
		assert.Nil(t, s.Current())
		assert.Empty(t, s.History())

		first := NewErrorInfo("a", errors.New("1"))
		second := NewErrorInfo("b", errors.New("2"))
		s.Report(ctx, first)
		s.Report(ctx, second)
		s.Report(ctx, nil)

		assert.Same(t, second, s.Current())
		assert.Equal(t, []*ErrorInfo{second, first}, s.History())
	})

	t.Run("HistoryBounded", func(t *testing.T) {
		s := NewStore()
		for i := range 15 {
			s.Report(ctx, NewErrorInfo(fmt.Sprintf("op-%d", i), errors.New("x")))
		}
		h := s.History()
		require.Len(t, h, DefaultHistoryLimit)
		assert.Equal(t, "op-14", h[0].Operation)
		assert.Equal(t, "op-5", h[9].Operation)
	})

	t.Run("CustomLimit", func(t *testing.T) {
		s := NewStore(WithHistoryLimit(2), WithHistoryLimit(0))
		for range 5 {
			s.Report(ctx, NewErrorInfo("op", errors.New("x")))
		}
		assert.Len(t, s.History(), 2)
	})

	t.Run("HistoryIsCopy", func(t *testing.T) {
		s := NewStore()
		s.Report(ctx, NewErrorInfo("op", errors.New("x")))
		h := s.History()
		h[0] = nil
		assert.NotNil(t, s.History()[0])
	})

	t.Run("Clear", func(t *testing.T) {
		s := NewStore()
		s.Report(ctx, NewErrorInfo("op", errors.New("x")))

		s.Clear()
		assert.Nil(t, s.Current())
		assert.Len(t, s.History(), 1)

		s.ClearAll()
		assert.Nil(t, s.Current())
		assert.Empty(t, s.History())
	})

	t.Run("Subscribe", func(t *testing.T) {
		s := NewStore()
		existing := NewErrorInfo("old", errors.New("x"))
		s.Report(ctx, existing)

		var snaps []Snapshot
		cancel := s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

		next := NewErrorInfo("new", errors.New("y"))
		s.Report(ctx, next)
		s.Clear()
		cancel()
		s.ClearAll()

		require.Len(t, snaps, 3)
		assert.Same(t, existing, snaps[0].Current)
		assert.Same(t, next, snaps[1].Current)
		assert.Len(t, snaps[1].History, 2)
		assert.Nil(t, snaps[2].Current)
		assert.Len(t, snaps[2].History, 2)
	})
}
