package proxy

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
)

// Proxy forwards admitted requests to one upstream service. Routing
// beyond a single target per path prefix belongs to the upstream
// infrastructure, not the gateway.
type Proxy struct {
	target  *url.URL
	reverse *httputil.ReverseProxy
}

func New(targetURL string) (*Proxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}

	reverse := httputil.NewSingleHostReverseProxy(target)
	reverse.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Proxy error for %s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Upstream service unavailable"}`))
	}

	return &Proxy{
		target:  target,
		reverse: reverse,
	}, nil
}

func (p *Proxy) Target() string {
	return p.target.String()
}

func (p *Proxy) Handle(c *gin.Context) {
	c.Request.Header.Set("X-Forwarded-Host", c.Request.Host)
	p.reverse.ServeHTTP(c.Writer, c.Request)
}
