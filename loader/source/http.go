package source

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultHTTPTimeout 默认 HTTP 客户端的整体请求超时
const DefaultHTTPTimeout = 30 * time.Second

// StatusError HTTP 响应状态不是 2xx
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source: GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTP 通过 GET 获取资源
type HTTP struct {
	client *http.Client
}

// NewHTTP 创建 HTTP 获取器，client 为 nil 时使用超时为 DefaultHTTPTimeout 的客户端
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTP{client: client}
}

// NewHTTPWithTimeout 创建请求超时为 timeout 的 HTTP 获取器，timeout <= 0 时使用 DefaultHTTPTimeout
func NewHTTPWithTimeout(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return NewHTTP(&http.Client{Timeout: timeout})
}

// Timeout 返回客户端的请求超时，0 表示不限制
func (h *HTTP) Timeout() time.Duration { return h.client.Timeout }

// Fetch 实现 Fetcher
func (h *HTTP) Fetch(ctx context.Context, locator string, progress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: locator, StatusCode: resp.StatusCode}
	}
	return readAll(resp.Body, resp.ContentLength, progress)
}
