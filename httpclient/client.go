package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/microhttp/dispatch"
	"github.com/kbukum/microhttp/resilience"
	"github.com/kbukum/microhttp/version"
)

const dialTimeout = 30 * time.Second

// Client is one named net/http client. It implements dispatch.Client.
type Client struct {
	name       string
	httpClient *http.Client
	config     Config
	base       *url.URL
	rl         *resilience.RateLimiter
}

var _ dispatch.Client = (*Client)(nil)

// New creates a client with the given configuration.
func New(name string, cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:   name,
		config: cfg,
		httpClient: &http.Client{
			Transport: withAuth(cfg.Auth, newTransport(cfg, tlsCfg)),
			Timeout:   cfg.Timeout,
		},
	}
	if cfg.BaseURL != "" {
		if c.base, err = url.Parse(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("httpclient: parse base_url: %w", err)
		}
	}
	if cfg.RateLimit != nil {
		c.rl = resilience.NewRateLimiter(clientLabel(name), *cfg.RateLimit)
	}
	return c, nil
}

// newTransport returns a pooled HTTP/1.1 transport, or an HTTP/2 one when
// the config asks for it.
func newTransport(cfg Config, tlsCfg *tls.Config) http.RoundTripper {
	if cfg.HTTP2 {
		return newH2Transport(tlsCfg)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	return transport
}

// h2Transport speaks HTTP/2 over TLS for https URLs and cleartext h2c with
// prior knowledge for http URLs.
type h2Transport struct {
	secure *http2.Transport
	plain  *http2.Transport
}

func newH2Transport(tlsCfg *tls.Config) *h2Transport {
	return &h2Transport{
		secure: &http2.Transport{TLSClientConfig: tlsCfg},
		plain: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, network, addr)
			},
		},
	}
}

func (t *h2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "http" {
		return t.plain.RoundTrip(req)
	}
	return t.secure.RoundTrip(req)
}

func (t *h2Transport) CloseIdleConnections() {
	t.secure.CloseIdleConnections()
	t.plain.CloseIdleConnections()
}

// Name returns the client name; empty for the default client.
func (c *Client) Name() string { return c.name }

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Send performs one exchange. With dispatch.CompleteHeadersRead the returned
// message holds the live network body; with dispatch.CompleteContentRead the
// body is read fully and the connection released before Send returns.
func (c *Client) Send(ctx context.Context, msg *dispatch.OutboundMessage, mode dispatch.CompletionMode) (*dispatch.InboundMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("httpclient: nil message")
	}
	req, err := c.buildRequest(ctx, msg)
	if err != nil {
		return nil, err
	}

	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if mode == dispatch.CompleteContentRead {
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("httpclient: read response body: %w", err)
		}
		return dispatch.NewInboundMessage(resp.StatusCode, resp.Header, io.NopCloser(bytes.NewReader(data)), nil), nil
	}
	return dispatch.NewInboundMessage(resp.StatusCode, resp.Header, resp.Body, nil), nil
}

// buildRequest turns an outbound message into an *http.Request. The
// request carries ctx, so a cache policy stamped by the dispatcher stays
// readable by RoundTrippers.
func (c *Client) buildRequest(ctx context.Context, msg *dispatch.OutboundMessage) (*http.Request, error) {
	target, err := c.resolve(msg.URL)
	if err != nil {
		return nil, err
	}

	method := msg.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, msg.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	for k, values := range msg.Header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if msg.Body != nil && msg.ContentType != "" {
		req.Header.Set("Content-Type", msg.ContentType)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", version.UserAgent())
	}
	return req, nil
}

// resolve joins a relative URL onto the base URL. Absolute URLs pass
// through untouched.
func (c *Client) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("httpclient: parse url %q: %w", raw, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.base == nil {
		return "", fmt.Errorf("httpclient: relative url %q needs a base_url on client %s", raw, clientLabel(c.name))
	}
	base := *c.base
	base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(u.Path, "/")
	base.RawPath = ""
	if u.RawQuery != "" {
		if base.RawQuery != "" {
			base.RawQuery += "&" + u.RawQuery
		} else {
			base.RawQuery = u.RawQuery
		}
	}
	base.Fragment = u.Fragment
	return base.String(), nil
}

func clientLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
