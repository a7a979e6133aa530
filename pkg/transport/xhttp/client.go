package xhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
	"github.com/omeyang/xloadkit/pkg/observability/xtrace"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

const (
	// DefaultTimeout 默认请求超时。
	DefaultTimeout = 10 * time.Second

	// maxResponseSize 最大响应体（10MB）。
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBody StatusError.Body 保留的最大字节数。
	maxErrorBody = 512

	metricsComponent = "xhttp"
)

// Config 客户端配置。
type Config struct {
	// BaseURL 基础地址，不含尾部斜杠。
	BaseURL string `koanf:"base_url" json:"base_url"`

	// Timeout 请求超时，<=0 时使用 DefaultTimeout。
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// Client 自定义底层客户端，设置后忽略 Timeout。
	Client *http.Client `koanf:"-" json:"-"`

	// Observer 观测接口，nil 时不观测。
	Observer xmetrics.Observer `koanf:"-" json:"-"`
}

// Client HTTP 客户端。
type Client struct {
	client   *http.Client
	baseURL  string
	observer xmetrics.Observer
}

// NewClient 创建客户端。
func NewClient(cfg Config) *Client {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	observer := cfg.Observer
	if observer == nil {
		observer = xmetrics.NoopObserver{}
	}
	return &Client{
		client:   client,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		observer: observer,
	}
}

// NewRequest 创建请求。path 可以是相对路径或完整 URL。
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("xhttp: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do 发送请求并读取完整响应体。
//
// 传输层错误原样返回（包装后），由 xfault 按网络或超时分类；
// 非 2xx 响应返回 *xfault.StatusError。
func (c *Client) Do(ctx context.Context, req *http.Request) (body []byte, err error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if req == nil {
		return nil, ErrNilRequest
	}
	if ctx == nil {
		ctx = req.Context()
	}

	ctx, span := xmetrics.Start(ctx, c.observer, xmetrics.SpanOptions{
		Component: metricsComponent,
		Operation: "http." + strings.ToLower(req.Method),
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String("http.method", req.Method),
			xmetrics.String("http.path", req.URL.Path),
		},
	})
	var code int
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("http.status_code", code)}})
	}()

	req = req.WithContext(ctx)
	xtrace.InjectToRequest(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xhttp: %s %s: %w", req.Method, sanitizeURL(req.URL.String()), err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // 响应体已读完
	code = resp.StatusCode

	lr := &io.LimitedReader{R: resp.Body, N: maxResponseSize + 1}
	body, err = io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("xhttp: read response body: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &xfault.StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Method: req.Method,
			URL:    sanitizeURL(req.URL.String()),
			Body:   truncate(body, maxErrorBody),
		}
	}
	return body, nil
}

// Get 发送 GET 请求并返回响应体。
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetJSON 发送 GET 请求并把 JSON 响应解码为 T。
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	body, err := c.Get(ctx, path)
	if err != nil {
		return out, err
	}
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("xhttp: decode %s: %w", path, err)
	}
	return out, nil
}

// Loader 返回按 path 获取 T 的加载函数，可直接交给 xloadable 或 xrecover。
func Loader[T any](c *Client, path string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return GetJSON[T](ctx, c, path)
	}
}

func (c *Client) buildURL(path string) string {
	if isAbsoluteURL(path) {
		return path
	}
	return c.baseURL + path
}

func isAbsoluteURL(path string) bool {
	if len(path) >= 8 && strings.EqualFold(path[:8], "https://") {
		return true
	}
	return len(path) >= 7 && strings.EqualFold(path[:7], "http://")
}

// sanitizeURL 去掉查询参数。
func sanitizeURL(rawURL string) string {
	if path, _, found := strings.Cut(rawURL, "?"); found {
		return path
	}
	return rawURL
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
