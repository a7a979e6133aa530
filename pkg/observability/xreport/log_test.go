package xreport

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xsampling"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) xlog.Logger {
	t.Helper()
	logger, cleanup, err := xlog.New().
		SetOutput(buf).
		SetFormat("json").
		SetLevel(xlog.LevelDebug).
		SetEnrich(false).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func retryingInfo(op string) *ErrorInfo {
	return FromAttempt(Attempt{
		Operation: op,
		Category:  xfault.CategoryNetwork,
		Attempt:   1,
		Decision:  Decision{ShouldRetry: true, RetryDelay: 300 * time.Millisecond},
		Err:       xfault.NewStatusError(502),
	})
}

func TestLogReporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Retrying", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogReporter(newJSONLogger(t, &buf)).Report(ctx, retryingInfo("load"))

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "WARN", lines[0]["level"])
		assert.Equal(t, "operation failed, retrying", lines[0]["msg"])
		assert.Equal(t, "NETWORK", lines[0]["category"])
		assert.Equal(t, "502", lines[0]["code"])
		assert.Equal(t, "load", lines[0]["operation"])
		assert.Equal(t, "300ms", lines[0]["duration"])
		assert.EqualValues(t, 1, lines[0]["attempt"])
	})

	t.Run("Terminal", func(t *testing.T) {
		var buf bytes.Buffer
		info := FromAttempt(Attempt{
			Operation: "save",
			Category:  xfault.CategoryClientError,
			Attempt:   1,
			Decision:  Decision{Reason: "client error"},
			Err:       xfault.NewStatusError(404),
		})
		NewLogReporter(newJSONLogger(t, &buf), WithSampler(xsampling.Never())).Report(ctx, info)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "ERROR", lines[0]["level"])
		assert.Equal(t, "client error", lines[0]["reason"])
	})

	t.Run("Fallback", func(t *testing.T) {
		var buf bytes.Buffer
		info := FromAttempt(Attempt{
			Operation: "feed",
			Category:  xfault.CategoryServerError,
			Attempt:   2,
			Decision:  Decision{HasFallback: true},
			Err:       xfault.NewStatusError(500),
		})
		NewLogReporter(newJSONLogger(t, &buf)).Report(ctx, info)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "operation failed, using fallback", lines[0]["msg"])
	})

	t.Run("WithoutFailure", func(t *testing.T) {
		var buf bytes.Buffer
		info := NewErrorInfo("", xfault.NewStatusError(500), WithURL("/api/x"))
		NewLogReporter(newJSONLogger(t, &buf)).Report(ctx, info)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "ERROR", lines[0]["level"])
		assert.Equal(t, "/api/x", lines[0]["url"])
		assert.NotContains(t, lines[0], "operation")
	})

	t.Run("SampledOut", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewLogReporter(newJSONLogger(t, &buf), WithSampler(xsampling.Never()))
		r.Report(ctx, retryingInfo("load"))
		r.Report(ctx, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("DefaultLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger, cleanup, err := xlog.New().SetOutput(&buf).SetFormat("json").SetEnrich(false).Build()
		require.NoError(t, err)
		defer func() { _ = cleanup() }()
		xlog.SetDefault(logger)
		defer xlog.ResetDefault()

		NewLogReporter(nil).Report(ctx, retryingInfo("load"))
		assert.Contains(t, buf.String(), "operation failed, retrying")
	})
}
