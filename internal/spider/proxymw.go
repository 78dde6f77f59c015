package spider

import (
	"context"
	"time"

	"prodcat/catalogworker/logger"
	"prodcat/catalogworker/services/proxy"
)

// ProxyHeader carries the allocated proxy URL to the fetcher
const ProxyHeader = "X-Proxy"

// ProxyOptions configures the proxy middleware for one spider
type ProxyOptions struct {
	// UseProxy toggles proxy allocation; disabled requests pass through
	UseProxy bool

	// AllocateTimeout bounds one allocation call; zero means 10 seconds
	AllocateTimeout time.Duration
}

// ProxyMiddleware asks the external proxy-allocation service for a proxy URL
// and attaches it to the request. Proxy unavailability is never fatal: on any
// failure the request is forwarded unmodified with a warning log.
type ProxyMiddleware struct {
	client  *proxy.Client
	options ProxyOptions
	log     *logger.Logger
}

// NewProxyMiddleware creates a proxy middleware backed by the given client
func NewProxyMiddleware(client *proxy.Client, options ProxyOptions) *ProxyMiddleware {
	if options.AllocateTimeout <= 0 {
		options.AllocateTimeout = 10 * time.Second
	}
	return &ProxyMiddleware{
		client:  client,
		options: options,
		log:     logger.ForEngine(),
	}
}

// Name identifies the middleware in logs
func (m *ProxyMiddleware) Name() string {
	return "proxy"
}

// Process attaches an allocated proxy URL, or forwards the request unchanged
// when allocation fails or proxy use is disabled
func (m *ProxyMiddleware) Process(req *Request) (*Request, error) {
	if !m.options.UseProxy || m.client == nil {
		return req, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.options.AllocateTimeout)
	defer cancel()

	proxyURL, err := m.client.Allocate(ctx)
	if err != nil {
		m.log.Warn().
			Err(err).
			Str("url", req.URL).
			Msg("No valid proxy found, proceeding without proxy")
		return req, nil
	}

	out := req.Clone()
	out.Headers[ProxyHeader] = proxyURL

	m.log.Debug().
		Str("proxy", proxyURL).
		Str("url", req.URL).
		Msg("Using proxy for request")

	return out, nil
}
