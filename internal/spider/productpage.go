package spider

import (
	"strings"
)

// ProductPageSpider extracts exactly one item from a single detail page, with
// no follow-up requests. Used when the start URL already is a product page.
type ProductPageSpider struct {
	startURLs  []string
	middleware []Middleware
}

// NewProductPageSpider creates a single-page spider
func NewProductPageSpider(startURLs []string, middleware []Middleware) *ProductPageSpider {
	return &ProductPageSpider{
		startURLs:  startURLs,
		middleware: middleware,
	}
}

// Type returns the spider's symbolic identifier
func (s *ProductPageSpider) Type() SpiderType {
	return SpiderTypeProductPage
}

// Name returns the spider's display name
func (s *ProductPageSpider) Name() string {
	return "Product Page Spider"
}

// StartRequests seeds the run with the detail page URLs
func (s *ProductPageSpider) StartRequests() []*Request {
	requests := make([]*Request, 0, len(s.startURLs))
	for _, u := range s.startURLs {
		requests = append(requests, NewRequest(u, CallbackParse))
	}
	return requests
}

// Middleware returns the spider's declared request middleware, in order
func (s *ProductPageSpider) Middleware() []Middleware {
	return s.middleware
}

// Parse extracts the page's single product
func (s *ProductPageSpider) Parse(callback string, resp *Response) ([]Output, error) {
	title := strings.TrimSpace(resp.Doc.Find("#product-name").Text())
	if title == "" {
		return nil, nil
	}

	price := strings.TrimSpace(resp.Doc.Find("#product-price").Text())
	imageURL, _ := resp.Doc.Find("#product-image img.product-image").Attr("src")

	return []Output{ItemOutput(Item{
		"title":     title,
		"price":     price,
		"image_url": imageURL,
	})}, nil
}
