package spider

import (
	"fmt"

	"prodcat/catalogworker/config"
	apperrors "prodcat/catalogworker/pkg/errors"
	"prodcat/catalogworker/services/proxy"
)

// SpiderType is a symbolic spider identifier
type SpiderType string

const (
	// SpiderTypeAmazon crawls Amazon search results
	SpiderTypeAmazon SpiderType = "amazon"
	// SpiderTypeProductPage extracts a single product page
	SpiderTypeProductPage SpiderType = "product_page"
)

// Overrides are per-dispatch runtime adjustments. Unknown override keys in a
// dispatch payload are ignored rather than rejected.
type Overrides struct {
	StartURLs []string `json:"start_urls,omitempty"`
}

// Definition maps a spider type to its display name and factory
type Definition struct {
	Type        SpiderType
	DisplayName string
	New         func(ov Overrides) Spider
}

// Registry holds the implemented spider definitions. Identifiers without an
// implementation are simply absent: they never show up in Available() and
// Lookup returns a configuration error for them.
type Registry struct {
	defs  map[SpiderType]Definition
	order []SpiderType
}

// NewRegistry builds the registry of implemented spiders from configuration
func NewRegistry(cfg *config.Config, proxyClient *proxy.Client) *Registry {
	r := &Registry{defs: make(map[SpiderType]Definition)}

	r.register(Definition{
		Type:        SpiderTypeAmazon,
		DisplayName: "Amazon Product Spider",
		New: func(ov Overrides) Spider {
			startURLs := []string{cfg.AmazonStartURL}
			if len(ov.StartURLs) > 0 {
				startURLs = ov.StartURLs
			}
			middleware := []Middleware{
				NewDedupMiddleware(),
				NewUserAgentMiddleware(cfg.UserAgent),
				NewProxyMiddleware(proxyClient, ProxyOptions{UseProxy: cfg.UseProxy}),
			}
			return NewAmazonSpider(startURLs, middleware)
		},
	})

	r.register(Definition{
		Type:        SpiderTypeProductPage,
		DisplayName: "Product Page Spider",
		New: func(ov Overrides) Spider {
			startURLs := []string{cfg.AppURL + "/product"}
			if len(ov.StartURLs) > 0 {
				startURLs = ov.StartURLs
			}
			middleware := []Middleware{
				NewDedupMiddleware(),
				NewUserAgentMiddleware(cfg.UserAgent),
			}
			return NewProductPageSpider(startURLs, middleware)
		},
	})

	return r
}

func (r *Registry) register(def Definition) {
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
}

// Lookup returns the definition for a spider type, or a configuration error
// when the type has no implementation
func (r *Registry) Lookup(t SpiderType) (Definition, error) {
	def, ok := r.defs[t]
	if !ok {
		return Definition{}, apperrors.NewConfiguration(
			fmt.Sprintf("spider type %q is not implemented", t), nil)
	}
	return def, nil
}

// Available returns every implemented definition in registration order
func (r *Registry) Available() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		defs = append(defs, r.defs[t])
	}
	return defs
}

// ParseSpiderType validates a raw identifier against the registry
func (r *Registry) ParseSpiderType(raw string) (SpiderType, error) {
	t := SpiderType(raw)
	if _, err := r.Lookup(t); err != nil {
		return "", err
	}
	return t, nil
}
