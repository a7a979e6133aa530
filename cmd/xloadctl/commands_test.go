package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
)

func runCLI(t *testing.T, ctx context.Context, args ...string) (code int, out, errOut string) {
	t.Helper()
	t.Cleanup(xlog.ResetDefault)
	var stdout, stderr bytes.Buffer
	code = runContext(ctx, append([]string{"xloadctl"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xloadctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func jsonServer(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestPolicy(t *testing.T) {
	code, out, _ := runCLI(t, context.Background(), "policy", "-n", "5")
	require.Equal(t, 0, code)

	rows := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		f := strings.Fields(line)
		rows[f[0]+"/"+f[1]] = f[2:]
	}
	assert.Equal(t, []string{"true", "2.4s"}, rows["RATE_LIMIT/3"][:2])
	assert.Equal(t, []string{"false", "-"}, rows["RATE_LIMIT/4"][:2])
	assert.Equal(t, []string{"true", "500ms"}, rows["SERVER_ERROR/1"][:2])
	assert.Equal(t, []string{"false", "-"}, rows["CLIENT_ERROR/1"][:2])
	assert.NotContains(t, rows, "CLIENT_ERROR/2")

	t.Run("ConfigOverride", func(t *testing.T) {
		path := writeConfig(t, "policy:\n  client_error: {max_attempts: 2, delay: 1s, scale: fixed}\n")
		code, out, _ := runCLI(t, context.Background(), "-c", path, "policy")
		require.Equal(t, 0, code)
		assert.Regexp(t, `CLIENT_ERROR\s+1\s+true\s+1s`, out)
	})
}

func TestProbe(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		url := jsonServer(t, http.StatusOK, `{"scene":1}`)
		code, out, _ := runCLI(t, context.Background(), "--stats", "probe", url)
		require.Equal(t, 0, code, out)
		assert.Contains(t, out, url+"\tidle")
		assert.Contains(t, out, url+"\tloading")
		assert.Contains(t, out, url+"\tready\t11 bytes")
		assert.Contains(t, out, "xloadkit.operation.total:")
	})

	t.Run("Error", func(t *testing.T) {
		url := jsonServer(t, http.StatusNotFound, `missing`)
		code, out, _ := runCLI(t, context.Background(), "probe", "--attempts", "1", url)
		assert.Equal(t, 1, code)
		assert.Contains(t, out, url+"\terror\tHTTP 404 Not Found")
	})

	t.Run("Usage", func(t *testing.T) {
		code, _, errOut := runCLI(t, context.Background(), "probe")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "at least one url")

		code, _, _ = runCLI(t, context.Background(), "probe", "--attempts", "0", "http://x")
		assert.Equal(t, 2, code)
	})
}

func TestRecover(t *testing.T) {
	failFast := writeConfig(t, "policy:\n  server_error: {max_attempts: 1}\n")

	t.Run("Success", func(t *testing.T) {
		url := jsonServer(t, http.StatusOK, `{"ok":true}`)
		code, out, _ := runCLI(t, context.Background(), "recover", url)
		require.Equal(t, 0, code)
		assert.Equal(t, "{\"ok\":true}\n", out)
	})

	t.Run("StaticFallback", func(t *testing.T) {
		url := jsonServer(t, http.StatusInternalServerError, `boom`)
		code, out, _ := runCLI(t, context.Background(), "-c", failFast, "recover", "--fallback", `{"cached":true}`, url)
		require.Equal(t, 0, code)
		assert.Equal(t, "{\"cached\":true}\n", out)
	})

	t.Run("GiveUp", func(t *testing.T) {
		url := jsonServer(t, http.StatusInternalServerError, `boom`)
		code, out, errOut := runCLI(t, context.Background(), "-c", failFast, "--log-format", "json", "recover", url)
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "failed: HTTP 500 Internal Server Error")
		assert.Contains(t, errOut, `"code":"500"`)
	})

	t.Run("Usage", func(t *testing.T) {
		code, _, _ := runCLI(t, context.Background(), "recover")
		assert.Equal(t, 2, code)
	})
}

func TestErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, "policy:\n  server_error: {max_attempts: 1}\nredis:\n  addr: "+mr.Addr()+"\n")
	url := jsonServer(t, http.StatusServiceUnavailable, `down`)

	code, _, _ := runCLI(t, context.Background(), "-c", path, "recover", url)
	require.Equal(t, 1, code)

	code, out, _ := runCLI(t, context.Background(), "-c", path, "errors", "--clear")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "503")
	assert.Contains(t, out, url)
	assert.Contains(t, out, "cleared xloadkit:errors")

	code, out, _ = runCLI(t, context.Background(), "-c", path, "errors")
	require.Equal(t, 0, code)
	assert.Equal(t, "no reports\n", out)

	t.Run("RedisNotConfigured", func(t *testing.T) {
		code, _, errOut := runCLI(t, context.Background(), "errors")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "redis.addr is not configured")
	})

	t.Run("RedisDown", func(t *testing.T) {
		down := writeConfig(t, "redis:\n  addr: 127.0.0.1:1\n")
		code, _, errOut := runCLI(t, context.Background(), "-c", down, "errors")
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "错误:")
	})
}

func TestWatch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	path := writeConfig(t, "log:\n  level: warn\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	code, out, _ := runCLI(t, ctx, "-c", path, "watch", "--schedule", "@every 1s", srv.URL)
	assert.Equal(t, 0, code)
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
	assert.Contains(t, out, srv.URL+"\tready\t2 bytes")

	t.Run("InvalidSchedule", func(t *testing.T) {
		code, _, errOut := runCLI(t, context.Background(), "watch", "--schedule", "not a schedule", srv.URL)
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "invalid schedule")
	})
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"UnknownFlag", []string{"--nope", "policy"}},
		{"BadConfig", []string{"-c", "/nonexistent/xloadctl.yaml", "policy"}},
		{"BadLogFormat", []string{"--log-format", "xml", "policy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, context.Background(), tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

func TestWithFallback(t *testing.T) {
	p := withFallback(xrecover.DefaultPolicy[payload], payload(`1`))

	d := p(xfault.CategoryNetwork, 1)
	assert.True(t, d.ShouldRetry)
	assert.Nil(t, d.Fallback)

	d = p(xfault.CategoryClientError, 1)
	require.NotNil(t, d.Fallback)
	assert.Equal(t, payload(`1`), *d.Fallback)
	assert.Equal(t, "static fallback", d.Reason)
}
