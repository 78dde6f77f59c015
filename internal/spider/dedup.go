package spider

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupCapacity bounds the per-run fingerprint set. A run that touches more
// distinct URLs than this may re-fetch the oldest ones, which is harmless for
// an upsert-based pipeline.
const dedupCapacity = 65536

// DedupMiddleware drops requests whose normalized URL was already seen during
// this run. The set is freshly allocated per run and safe under concurrent
// access: the first request for a fingerprint wins, later duplicates are
// dropped.
type DedupMiddleware struct {
	seen *lru.Cache[string, struct{}]
}

// NewDedupMiddleware creates a deduplication middleware with an empty seen-set
func NewDedupMiddleware() *DedupMiddleware {
	seen, _ := lru.New[string, struct{}](dedupCapacity)
	return &DedupMiddleware{seen: seen}
}

// Name identifies the middleware in logs
func (m *DedupMiddleware) Name() string {
	return "dedup"
}

// Process drops the request when its fingerprint was already admitted.
// ContainsOrAdd is atomic, so two concurrent requests with the same
// fingerprint cannot both pass.
func (m *DedupMiddleware) Process(req *Request) (*Request, error) {
	fp := Fingerprint(req.URL)
	if seen, _ := m.seen.ContainsOrAdd(fp, struct{}{}); seen {
		return nil, ErrRequestDropped
	}
	return req, nil
}

// Fingerprint normalizes a URL into a deduplication identity: scheme and host
// lowercased, default ports stripped, fragment dropped. Unparseable input
// falls back to the raw string.
func Fingerprint(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	} else if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}

	fp := scheme + "://" + host + parsed.EscapedPath()
	if parsed.RawQuery != "" {
		fp += "?" + parsed.RawQuery
	}
	return fp
}
