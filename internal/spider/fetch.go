package spider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"prodcat/catalogworker/logger"
	apperrors "prodcat/catalogworker/pkg/errors"
	"prodcat/catalogworker/services/cache"
)

// Fetcher dispatches terminal requests over the network and turns the bodies
// into parseable documents. Hosts that answer with a rate-limit status are
// blocked in the shared cache for a while so sibling runs leave them alone.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewFetcher creates a fetcher. cacheSvc may be nil, which disables the
// rate-limit block bookkeeping.
func NewFetcher(timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		log:       logger.ForEngine(),
	}
}

// Do fetches the request, converts the body to UTF-8 if needed, and parses it
// into a document
func (f *Fetcher) Do(ctx context.Context, req *Request) (*Response, error) {
	host := requestHost(req.URL)

	if f.cacheSvc != nil && host != "" {
		if _, err := f.cacheSvc.Get(blockKey(host)); err == nil {
			return nil, apperrors.NewRateLimit(host, f.blockTime)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, apperrors.NewNetwork("", "failed to create request", err)
	}

	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range req.Headers {
		if key == ProxyHeader {
			continue
		}
		httpReq.Header.Set(key, value)
	}

	resp, err := f.clientFor(req).Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetwork("", fmt.Sprintf("failed to fetch %s", req.URL), err)
	}
	defer resp.Body.Close()

	// 430 shows up from retail sites fronted by aggressive bot protection
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		if f.cacheSvc != nil && host != "" {
			f.cacheSvc.Set(blockKey(host), []byte(fmt.Sprintf("%d", int(f.blockTime.Seconds()))), f.blockTime)
		}
		return nil, apperrors.NewRateLimit(host, f.blockTime)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork("", fmt.Sprintf("fetch %s unexpected status code: %d", req.URL, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork("", "failed to read response body", err)
	}

	utf8Body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.NewParsing("", "failed to convert response to UTF-8", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, apperrors.NewParsing("", "failed to parse HTML", err)
	}

	return &Response{
		Request:    req,
		StatusCode: resp.StatusCode,
		Doc:        doc,
	}, nil
}

// clientFor routes the request through the proxy attached by the middleware
// chain, when there is one
func (f *Fetcher) clientFor(req *Request) *http.Client {
	proxyRaw := req.Headers[ProxyHeader]
	if proxyRaw == "" {
		return f.client
	}

	proxyURL, err := url.Parse(proxyRaw)
	if err != nil {
		f.log.Warn().Str("proxy", proxyRaw).Msg("Ignoring unparseable proxy URL")
		return f.client
	}

	return &http.Client{
		Timeout: f.timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}
}

// toUTF8 converts the body to UTF-8 based on the Content-Type header and the
// body content itself
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, err
	}
	return &buf, nil
}

func requestHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func blockKey(host string) string {
	return "fetch_block:" + host
}
