package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single backend request
const DefaultTimeout = 30 * time.Second

// Request is a backend call. Body is sent as-is: newline-delimited JSON for
// multi-search, a JSON object for single searches.
type Request struct {
	URI     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Response is the raw backend reply. Bodies are never decoded here because
// the multi-search endpoint does not return a uniform JSON content type.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends requests to the search backend
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Transport interface
type Func func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req)
func (f Func) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPConfig configures an HTTPTransport
type HTTPConfig struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	ProxyURL           string
}

// HTTPTransport implements Transport over net/http
type HTTPTransport struct {
	client *http.Client
}

// NewHTTP creates an HTTP transport
func NewHTTP(cfg HTTPConfig) (*HTTPTransport, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed clusters
	}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		base.Proxy = http.ProxyURL(proxy)
	}

	return NewHTTPWithClient(&http.Client{
		Timeout:   timeout,
		Transport: base,
	}), nil
}

// NewHTTPWithClient wraps an existing client. A nil client gets the default
// timeout.
func NewHTTPWithClient(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client}
}

// Send issues the request and reads the full response body. Network failures
// are returned with their cause chain intact so Classify can inspect them.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URI, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URI, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
