package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The router runs in a real server: ReverseProxy needs response writer
// capabilities a bare ResponseRecorder does not have.
func newProxyServer(t *testing.T, p *Proxy) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Any("/orders", p.Handle)
	router.Any("/orders/*proxyPath", p.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyForwardsToUpstream(t *testing.T) {
	var gotPath, gotForwardedHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotForwardedHost = r.Header.Get("X-Forwarded-Host")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"o-1"}`))
	}))
	defer upstream.Close()

	p, err := New(upstream.URL)
	require.NoError(t, err)
	assert.Equal(t, upstream.URL, p.Target())

	srv := newProxyServer(t, p)

	resp, err := http.Post(srv.URL+"/orders/42", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"id":"o-1"}`, string(body))
	assert.Equal(t, "/orders/42", gotPath)
	assert.NotEmpty(t, gotForwardedHost, "gateway host is forwarded upstream")
}

func TestProxyUnreachableUpstream(t *testing.T) {
	p, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	srv := newProxyServer(t, p)

	resp, err := http.Get(srv.URL + "/orders")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "Upstream service unavailable")
}
