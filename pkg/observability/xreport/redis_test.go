package xreport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisSink(t *testing.T) {
	_, err := NewRedisSink(nil)
	assert.ErrorIs(t, err, ErrNilClient)

	_, client := setupRedis(t)
	_, err = NewRedisSink(client, WithKey(""))
	assert.ErrorIs(t, err, ErrEmptyKey)

	s, err := NewRedisSink(client)
	require.NoError(t, err)
	assert.Equal(t, DefaultRedisKey, s.Key())
}

func TestRedisSink_PushRecent(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)

	s, err := NewRedisSink(client, WithKey("test:errors"), WithMaxLen(3))
	require.NoError(t, err)

	var infos []*ErrorInfo
	for i := range 5 {
		info := retryingInfo(fmt.Sprintf("op-%d", i))
		infos = append(infos, info)
		require.NoError(t, s.Push(ctx, info))
	}

	items, err := mr.List("test:errors")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, infos[4].ID, recent[0].ID)
	assert.Equal(t, "op-4", recent[0].Operation)
	require.NotNil(t, recent[0].Failure)
	assert.Equal(t, xfault.CategoryNetwork, recent[0].Failure.Category)

	one, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	none, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.ErrorIs(t, s.Push(ctx, nil), ErrNilInfo)
}

func TestRedisSink_SkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	s, err := NewRedisSink(client)
	require.NoError(t, err)

	require.NoError(t, s.Push(ctx, retryingInfo("ok")))
	_, err = mr.Lpush(DefaultRedisKey, "{not json")
	require.NoError(t, err)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "ok", recent[0].Operation)
}

func TestRedisSink_Clear(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	s, err := NewRedisSink(client)
	require.NoError(t, err)

	require.NoError(t, s.Push(ctx, retryingInfo("op")))
	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists(DefaultRedisKey))
}

func TestRedisSink_RateLimit(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	s, err := NewRedisSink(client, WithRateLimit(2))
	require.NoError(t, err)

	require.NoError(t, s.Push(ctx, retryingInfo("noisy")))
	require.NoError(t, s.Push(ctx, retryingInfo("noisy")))
	assert.ErrorIs(t, s.Push(ctx, retryingInfo("noisy")), ErrRateLimited)

	// 限流按操作隔离
	require.NoError(t, s.Push(ctx, retryingInfo("quiet")))

	var reported []error
	s.onError = func(err error) { reported = append(reported, err) }
	s.Report(ctx, retryingInfo("noisy"))
	assert.Empty(t, reported)
}

func TestRedisSink_ReportError(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)

	var got error
	s, err := NewRedisSink(client, WithOnError(func(err error) { got = err }))
	require.NoError(t, err)

	mr.SetError("server down")
	s.Report(ctx, retryingInfo("op"))
	require.Error(t, got)

	_, err = s.Recent(ctx, 1)
	assert.Error(t, err)
	assert.Error(t, s.Clear(ctx))
	mr.SetError("")

	got = nil
	s.Report(ctx, retryingInfo("op"))
	assert.NoError(t, got)
	assert.False(t, errors.Is(got, ErrRateLimited))
}

// stalledRedis 接受连接但从不应答。
func stalledRedis(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				_ = c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})
	return ln.Addr().String()
}

func TestRedisSink_ReportTimeout(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:                  stalledRedis(t),
		ContextTimeoutEnabled: true,
		MaxRetries:            -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	var got error
	s, err := NewRedisSink(client, WithTimeout(50*time.Millisecond), WithOnError(func(err error) { got = err }))
	require.NoError(t, err)

	start := time.Now()
	s.Report(context.Background(), retryingInfo("op"))
	assert.Less(t, time.Since(start), time.Second)
	assert.Error(t, got)
}
