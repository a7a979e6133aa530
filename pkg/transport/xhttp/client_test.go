package xhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
	"github.com/omeyang/xloadkit/pkg/observability/xtrace"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

type scene struct {
	ID    string `json:"id"`
	Items int    `json:"items"`
}

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	t.Cleanup(c.client.CloseIdleConnections)
	return c
}

func TestGetJSON(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/scene", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`{"id":"s1","items":3}`))
		})
		got, err := GetJSON[scene](context.Background(), c, "/v1/scene")
		require.NoError(t, err)
		assert.Equal(t, scene{ID: "s1", Items: 3}, got)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		got, err := GetJSON[scene](context.Background(), c, "/")
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("DecodeError", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := GetJSON[scene](context.Background(), c, "/v1/scene")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xhttp: decode /v1/scene")
		assert.Equal(t, xfault.CategoryLocalFault, xfault.ClassifyError(err))
	})
}

func TestDo_StatusError(t *testing.T) {
	tests := []struct {
		name string
		code int
		want xfault.Category
	}{
		{"ServiceUnavailable", http.StatusServiceUnavailable, xfault.CategoryServerError},
		{"TooManyRequests", http.StatusTooManyRequests, xfault.CategoryRateLimit},
		{"NotFound", http.StatusNotFound, xfault.CategoryClientError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(strings.Repeat("x", 600)))
			})
			_, err := c.Get(context.Background(), "/v1/scene?tenant=a")

			var se *xfault.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, http.MethodGet, se.Method)
			assert.True(t, strings.HasSuffix(se.URL, "/v1/scene"))
			assert.Len(t, se.Body, maxErrorBody+3)
			assert.Equal(t, tt.want, xfault.ClassifyError(err))
		})
	}
}

func TestDo_TransportErrors(t *testing.T) {
	t.Run("ConnectionRefused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(Config{BaseURL: url})
		_, err := c.Get(context.Background(), "/")
		require.Error(t, err)
		assert.Equal(t, xfault.CategoryNetwork, xfault.ClassifyError(err))
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
		defer c.client.CloseIdleConnections()
		_, err := c.Get(context.Background(), "/")
		require.Error(t, err)
		assert.Equal(t, xfault.CategoryTimeout, xfault.ClassifyError(err))
	})
}

func TestDo_PropagatesTrace(t *testing.T) {
	var got http.Header
	c := newServer(t, func(_ http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	})

	ctx, err := xctx.WithTrace(context.Background(), xctx.Trace{
		TraceID:   "0af7651916cd43dd8448eb211c80319c",
		SpanID:    "b7ad6b7169203331",
		RequestID: "req-7",
	})
	require.NoError(t, err)

	_, err = c.Get(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "req-7", got.Get(xtrace.HeaderRequestID))
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-00", got.Get(xtrace.HeaderTraceparent))
}

func TestLoader(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s2"}`))
	})
	load := Loader[scene](c, "/v1/scene")
	got, err := load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)
}

func TestInvalidInput(t *testing.T) {
	var nilClient *Client
	_, err := nilClient.Get(context.Background(), "/")
	assert.ErrorIs(t, err, ErrNilClient)

	_, err = NewClient(Config{}).Do(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRequest)

	_, err = NewClient(Config{}).Get(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://a"})
	assert.Equal(t, "http://a/x", c.buildURL("/x"))
	assert.Equal(t, "HTTPS://b/y", c.buildURL("HTTPS://b/y"))
	assert.Equal(t, "http://a/x", sanitizeURL("http://a/x?k=v"))
	assert.Equal(t, "ab...", truncate([]byte("abc"), 2))
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
}
