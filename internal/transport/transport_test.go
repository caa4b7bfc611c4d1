package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportSend(t *testing.T) {
	var gotMethod, gotCT, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get(HeaderContentType)
		gotAuth = r.Header.Get(HeaderAuthorization)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	tr, err := NewHTTP(HTTPConfig{Timeout: time.Second})
	require.NoError(t, err)

	headers := WithContentType(AuthHeaders("", "", "k1", nil), ContentTypeNDJSON)
	resp, err := tr.Send(context.Background(), &Request{
		URI:     srv.URL + "/idx/_msearch",
		Method:  http.MethodGet,
		Headers: headers,
		Body:    []byte("{}\n{}\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, `{"ok":false}`, string(resp.Body))
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, ContentTypeNDJSON, gotCT)
	assert.Equal(t, "ApiKey k1", gotAuth)
	assert.Equal(t, "{}\n{}\n", string(gotBody))
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tr, err := NewHTTP(HTTPConfig{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), &Request{URI: srv.URL})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, CodeTimeout, Code(err))
}

func TestNewHTTPWithClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[]}`))
	}))
	defer srv.Close()

	// srv.Client trusts the test certificate
	tr := NewHTTPWithClient(srv.Client())
	resp, err := tr.Send(context.Background(), &Request{URI: srv.URL + "/idx/_msearch"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"responses":[]}`, string(resp.Body))

	t.Run("nil client gets default timeout", func(t *testing.T) {
		tr := NewHTTPWithClient(nil)
		require.NotNil(t, tr.client)
		assert.Equal(t, DefaultTimeout, tr.client.Timeout)
	})
}

func TestNewHTTPBadProxy(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{ProxyURL: "://bad"})
	assert.Error(t, err)
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name               string
		user, pass, apiKey string
		want               string
	}{
		{"basic", "elastic", "secret", "ignored", "Basic " + base64.StdEncoding.EncodeToString([]byte("elastic:secret"))},
		{"api key", "", "", "abc", "ApiKey abc"},
		{"username only falls back to api key", "elastic", "", "abc", "ApiKey abc"},
		{"none", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AuthHeaders(tt.user, tt.pass, tt.apiKey, map[string]string{"X-Extra": "1"})
			assert.Equal(t, tt.want, h[HeaderAuthorization])
			assert.Equal(t, "1", h["X-Extra"])
		})
	}
}

func TestWithContentTypeCopies(t *testing.T) {
	base := map[string]string{"A": "b"}
	out := WithContentType(base, ContentTypeJSON)
	assert.Equal(t, ContentTypeJSON, out[HeaderContentType])
	assert.NotContains(t, base, HeaderContentType)
}

func TestClassify(t *testing.T) {
	reset := fmt.Errorf("send: %w", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)})
	proto := fmt.Errorf("send: %w", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.EPROTO)})
	timeout := fmt.Errorf("send: %w", context.DeadlineExceeded)

	assert.True(t, IsConnectionReset(reset))
	assert.False(t, IsProtocolError(reset))
	assert.False(t, IsTimeout(reset))
	assert.Equal(t, CodeConnectionReset, Code(reset))

	assert.True(t, IsProtocolError(proto))
	assert.False(t, IsConnectionReset(proto))
	assert.Equal(t, CodeProtocol, Code(proto))

	assert.True(t, IsTimeout(timeout))
	assert.Equal(t, CodeTimeout, Code(timeout))

	assert.Equal(t, "", Code(assert.AnError))
	assert.Equal(t, "", Code(nil))
}

func TestFuncTransport(t *testing.T) {
	var tr Transport = Func(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: 200, Body: []byte(req.URI)}, nil
	})
	resp, err := tr.Send(context.Background(), &Request{URI: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", string(resp.Body))
}
