package spider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"prodcat/catalogworker/helpers"
	apperrors "prodcat/catalogworker/pkg/errors"
)

// AmazonSpider crawls search-result listings: every result links to a detail
// page, and the listing's "next" affordance is followed until it disappears
// or is marked disabled.
type AmazonSpider struct {
	startURLs  []string
	middleware []Middleware
}

// NewAmazonSpider creates an Amazon spider with the given start URLs and
// middleware chain
func NewAmazonSpider(startURLs []string, middleware []Middleware) *AmazonSpider {
	return &AmazonSpider{
		startURLs:  startURLs,
		middleware: middleware,
	}
}

// Type returns the spider's symbolic identifier
func (s *AmazonSpider) Type() SpiderType {
	return SpiderTypeAmazon
}

// Name returns the spider's display name
func (s *AmazonSpider) Name() string {
	return "Amazon Product Spider"
}

// StartRequests seeds the run with the listing start URLs
func (s *AmazonSpider) StartRequests() []*Request {
	requests := make([]*Request, 0, len(s.startURLs))
	for _, u := range s.startURLs {
		requests = append(requests, NewRequest(u, CallbackParse))
	}
	return requests
}

// Middleware returns the spider's declared request middleware, in order
func (s *AmazonSpider) Middleware() []Middleware {
	return s.middleware
}

// Parse routes the response to the named callback
func (s *AmazonSpider) Parse(callback string, resp *Response) ([]Output, error) {
	switch callback {
	case "", CallbackParse:
		return s.parseListing(resp), nil
	case CallbackParseProduct:
		return s.parseProduct(resp), nil
	default:
		return nil, apperrors.NewParsing(string(s.Type()), "unknown parse callback: "+callback, nil)
	}
}

// parseListing enumerates search results and enqueues their detail pages,
// then follows the pagination affordance unless it is absent or disabled
func (s *AmazonSpider) parseListing(resp *Response) []Output {
	var outputs []Output
	origin := resp.Origin()

	resp.Doc.Find(".s-result-item").Each(func(_ int, node *goquery.Selection) {
		title := helpers.CleanText(node.Find("a.a-link-normal h2 span").Text())
		productURL, _ := node.Find("h2 a").Attr("href")

		if title == "" || productURL == "" {
			return
		}

		detailURL := helpers.Absolutize(productURL, origin)
		outputs = append(outputs, RequestOutput(NewRequest(detailURL, CallbackParseProduct)))
	})

	next := resp.Doc.Find(".s-pagination-next")
	disabled := resp.Doc.Find(".s-pagination-next.s-pagination-disabled")

	if next.Length() > 0 && disabled.Length() == 0 {
		if nextURL, ok := next.Attr("href"); ok && nextURL != "" {
			outputs = append(outputs, RequestOutput(NewRequest(helpers.Absolutize(nextURL, origin), CallbackParse)))
		}
	}

	return outputs
}

// parseProduct extracts one item from a detail page. Price is taken from the
// first candidate location that exists; an item is only emitted when the
// trimmed title is non-empty.
func (s *AmazonSpider) parseProduct(resp *Response) []Output {
	title := strings.TrimSpace(resp.Doc.Find("#productTitle").Text())
	if title == "" {
		return nil
	}

	var price string
	if sel := resp.Doc.Find("#priceblock_ourprice"); sel.Length() > 0 {
		price = sel.Text()
	} else if sel := resp.Doc.Find(".a-offscreen"); sel.Length() > 0 {
		price = sel.First().Text()
	}

	imageURL, _ := resp.Doc.Find("#landingImage").Attr("src")

	return []Output{ItemOutput(Item{
		"title":     title,
		"price":     strings.TrimSpace(price),
		"image_url": imageURL,
	})}
}
