package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/pool"
	"github.com/hashicorp/go-cleanhttp"
)

// HTTPDialer 为每个 host 缓存一个共享的 *http.Transport，同一 host 的客户端复用连接；
// 连接池重置时关闭并清空。
type HTTPDialer struct {
	mu         sync.Mutex
	transports map[string]*http.Transport
}

func NewHTTPDialer() *HTTPDialer {
	return &HTTPDialer{transports: make(map[string]*http.Transport)}
}

// Dial 读取配置项 Protocol（默认 http://）、Auth、CheckPath。
func (d *HTTPDialer) Dial(host string, stamp pool.Stamp) (pool.Client, error) {
	base := pool.NewBase(stamp)
	cfg := base.Config()

	scheme := cfg.String(constant.PoolProtocol, constant.DefaultHttpScheme)
	if !strings.Contains(scheme, "://") {
		scheme += "://"
	}

	return &HTTPClient{
		Base:      base,
		baseURL:   strings.TrimRight(scheme+host, "/"),
		checkPath: cfg.String(constant.PoolCheckPath, constant.DefaultCheckPath),
		auth:      cfg.String(constant.PoolAuth, ""),
		client: &http.Client{
			Transport: d.transport(host),
			Timeout:   stamp.Timeout,
		},
		header: make(http.Header),
	}, nil
}

// Reset 关闭所有 host 的空闲连接并清空缓存。
func (d *HTTPDialer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for host, tr := range d.transports {
		tr.CloseIdleConnections()
		delete(d.transports, host)
	}
}

func (d *HTTPDialer) transport(host string) *http.Transport {
	d.mu.Lock()
	defer d.mu.Unlock()

	tr, ok := d.transports[host]
	if !ok {
		tr = cleanhttp.DefaultPooledTransport()
		d.transports[host] = tr
	}
	return tr
}

// HTTPClient 池化的 HTTP 客户端，请求自动拼接 baseURL 并携带默认 header。
type HTTPClient struct {
	pool.Base

	baseURL   string
	checkPath string
	auth      string
	client    *http.Client
	header    http.Header
	open      bool
}

// Open 在 ClientTimeout/2 内对 CheckPath 发送 HEAD，要求 2xx。
func (c *HTTPClient) Open() error {
	ctx, cancel := context.WithTimeout(context.Background(), halfTimeout(c.Timeout()))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+c.checkPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.open = false
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.open = false
		return fmt.Errorf("http check %s: status %d", c.baseURL, resp.StatusCode)
	}
	c.open = true
	return nil
}

// Close 共享的 Transport 由 HTTPDialer 管理，这里只标记关闭。
func (c *HTTPClient) Close() error {
	c.open = false
	return nil
}

// Reset 恢复默认 header，并按配置项 Auth 设置 Authorization。
func (c *HTTPClient) Reset() {
	c.header = make(http.Header)
	c.header.Set(constant.UserAgent, constant.DefaultUserAgent)
	if c.auth != "" {
		c.header.Set(constant.Authorization, c.auth)
	}
}

func (c *HTTPClient) IsOpen() bool { return c.open }

// Raw 返回自身，GetStub 的调用面类型为 *HTTPClient。
func (c *HTTPClient) Raw() any { return c }

// BaseURL 形如 http://10.0.0.1:80
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Header 本次借出期间的请求 header，归还时被 Reset。
func (c *HTTPClient) Header() http.Header { return c.header }

// NewRequest 构造相对 baseURL 的请求并附带 Header。
func (c *HTTPClient) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.header {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}

// Do 发送请求。
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if !c.open {
		return nil, ErrClientClosed
	}
	return c.client.Do(req)
}

func halfTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = constant.DefaultClientTimeout * time.Millisecond
	}
	return timeout / 2
}
