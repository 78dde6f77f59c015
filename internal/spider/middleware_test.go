package spider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodcat/catalogworker/services/proxy"
)

type recordingMiddleware struct {
	name  string
	order *[]string
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) Process(req *Request) (*Request, error) {
	*m.order = append(*m.order, m.name)
	return req, nil
}

func TestChain_AppliesInDeclarationOrder(t *testing.T) {
	var order []string
	chain := Chain{
		&recordingMiddleware{name: "dedup", order: &order},
		&recordingMiddleware{name: "user_agent", order: &order},
		&recordingMiddleware{name: "proxy", order: &order},
	}

	_, err := chain.Apply(NewRequest("https://example.com", CallbackParse))

	require.NoError(t, err)
	assert.Equal(t, []string{"dedup", "user_agent", "proxy"}, order)
}

func TestChain_DropStopsChain(t *testing.T) {
	var order []string
	chain := Chain{
		NewDedupMiddleware(),
		&recordingMiddleware{name: "after_dedup", order: &order},
	}

	_, err := chain.Apply(NewRequest("https://example.com/p/1", CallbackParse))
	require.NoError(t, err)

	_, err = chain.Apply(NewRequest("https://example.com/p/1", CallbackParse))
	assert.ErrorIs(t, err, ErrRequestDropped)
	assert.Equal(t, []string{"after_dedup"}, order, "middleware after the drop must not run")
}

func TestUserAgentMiddleware_StampsHeader(t *testing.T) {
	mw := NewUserAgentMiddleware("catalogworker/1.0")
	req := NewRequest("https://example.com", CallbackParse)

	out, err := mw.Process(req)

	require.NoError(t, err)
	assert.Equal(t, "catalogworker/1.0", out.Headers["User-Agent"])
	assert.Empty(t, req.Headers["User-Agent"], "input request must not be mutated")
}

func TestUserAgentMiddleware_EmptyFallsBackToDefault(t *testing.T) {
	mw := NewUserAgentMiddleware("")
	out, err := mw.Process(NewRequest("https://example.com", CallbackParse))

	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, out.Headers["User-Agent"])
}

func TestProxyMiddleware_AttachesAllocatedProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proxy", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": "http://10.0.0.1:3128"}`))
	}))
	defer srv.Close()

	mw := NewProxyMiddleware(proxy.NewClient(srv.URL), ProxyOptions{UseProxy: true})
	req := NewRequest("https://example.com/p/1", CallbackParse)

	out, err := mw.Process(req)

	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:3128", out.Headers[ProxyHeader])
	assert.Empty(t, req.Headers[ProxyHeader], "input request must not be mutated")
}

func TestProxyMiddleware_FailurePassesRequestThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	mw := NewProxyMiddleware(proxy.NewClient(srv.URL), ProxyOptions{UseProxy: true})
	req := NewRequest("https://example.com/p/1", CallbackParse)

	out, err := mw.Process(req)

	require.NoError(t, err, "proxy unavailability must not fail the request")
	assert.Same(t, req, out)
	assert.Empty(t, out.Headers[ProxyHeader])
}

func TestProxyMiddleware_UnreachableServicePassesRequestThrough(t *testing.T) {
	mw := NewProxyMiddleware(proxy.NewClient("http://127.0.0.1:1"), ProxyOptions{UseProxy: true})
	req := NewRequest("https://example.com/p/1", CallbackParse)

	out, err := mw.Process(req)

	require.NoError(t, err)
	assert.Same(t, req, out)
}

func TestProxyMiddleware_DisabledPassesRequestThrough(t *testing.T) {
	mw := NewProxyMiddleware(proxy.NewClient("http://127.0.0.1:1"), ProxyOptions{UseProxy: false})
	req := NewRequest("https://example.com/p/1", CallbackParse)

	out, err := mw.Process(req)

	require.NoError(t, err)
	assert.Same(t, req, out)
}
