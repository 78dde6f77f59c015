package spider

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Callback names understood by the bundled spiders
const (
	CallbackParse        = "parse"
	CallbackParseProduct = "parseProduct"
)

// Item is a raw field map produced by a parse step, prior to pipeline
// processing. Values are raw strings straight from the page.
type Item map[string]string

// Clone returns a shallow copy of the item
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Request is an outbound fetch request. Middleware never mutates a request in
// place; each middleware either returns it untouched or returns a modified
// copy for the next middleware in the chain.
type Request struct {
	URL      string
	Method   string
	Callback string
	Headers  map[string]string
}

// NewRequest creates a GET request handled by the named parse callback
func NewRequest(rawURL, callback string) *Request {
	if callback == "" {
		callback = CallbackParse
	}
	return &Request{
		URL:      rawURL,
		Method:   "GET",
		Callback: callback,
		Headers:  make(map[string]string),
	}
}

// Clone returns a copy of the request with its own header map
func (r *Request) Clone() *Request {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	return &Request{
		URL:      r.URL,
		Method:   r.Method,
		Callback: r.Callback,
		Headers:  headers,
	}
}

// Response is a fetched document scoped to one parse invocation
type Response struct {
	Request    *Request
	StatusCode int
	Doc        *goquery.Document
}

// Origin returns the scheme://host of the fetched URL, used to absolutize
// relative links found on the page
func (r *Response) Origin() string {
	parsed, err := url.Parse(r.Request.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Output is the tagged union emitted by a parse step: either a follow-up
// request or an extracted item, never both.
type Output struct {
	Request *Request
	Item    Item
}

// RequestOutput wraps a follow-up request
func RequestOutput(req *Request) Output {
	return Output{Request: req}
}

// ItemOutput wraps an extracted item
func ItemOutput(item Item) Output {
	return Output{Item: item}
}

// Spider defines a traversal: start points, declared middleware, and the
// parse logic that turns responses into follow-up requests and items
type Spider interface {
	// Type returns the spider's symbolic identifier
	Type() SpiderType

	// Name returns the spider's display name
	Name() string

	// StartRequests returns the seed requests for a run
	StartRequests() []*Request

	// Middleware returns the ordered request middleware chain for this spider
	Middleware() []Middleware

	// Parse handles a fetched response with the named callback and returns
	// zero or more outputs. Parse is atomic per response: it either returns
	// its complete result or an error, never a partial emission.
	Parse(callback string, resp *Response) ([]Output, error)
}

// ItemHandler receives extracted items from the engine. It always returns an
// item so run accounting never breaks; disposition is signalled via logging.
type ItemHandler interface {
	ProcessItem(ctx context.Context, item Item) Item
}
