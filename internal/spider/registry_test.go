package spider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodcat/catalogworker/config"
	apperrors "prodcat/catalogworker/pkg/errors"
)

func newTestRegistry() *Registry {
	cfg := &config.Config{
		UserAgent:      "test-agent",
		AmazonStartURL: "https://www.example.com/s?k=laptops",
		AppURL:         "http://localhost:3000",
	}
	return NewRegistry(cfg, nil)
}

func TestRegistry_LookupImplementedTypes(t *testing.T) {
	r := newTestRegistry()

	amazon, err := r.Lookup(SpiderTypeAmazon)
	require.NoError(t, err)
	assert.Equal(t, "Amazon Product Spider", amazon.DisplayName)

	productPage, err := r.Lookup(SpiderTypeProductPage)
	require.NoError(t, err)
	assert.Equal(t, "Product Page Spider", productPage.DisplayName)
}

func TestRegistry_UnknownTypeIsConfigurationError(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Lookup(SpiderType("ebay"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Contains(t, err.Error(), `spider type "ebay" is not implemented`)
}

func TestRegistry_DefaultStartURLsFromConfig(t *testing.T) {
	r := newTestRegistry()

	amazon, err := r.Lookup(SpiderTypeAmazon)
	require.NoError(t, err)

	seeds := amazon.New(Overrides{}).StartRequests()
	require.Len(t, seeds, 1)
	assert.Equal(t, "https://www.example.com/s?k=laptops", seeds[0].URL)

	productPage, err := r.Lookup(SpiderTypeProductPage)
	require.NoError(t, err)

	seeds = productPage.New(Overrides{}).StartRequests()
	require.Len(t, seeds, 1)
	assert.Equal(t, "http://localhost:3000/product", seeds[0].URL)
}

func TestRegistry_OverridesReplaceStartURLs(t *testing.T) {
	r := newTestRegistry()

	def, err := r.Lookup(SpiderTypeAmazon)
	require.NoError(t, err)

	sp := def.New(Overrides{StartURLs: []string{
		"https://www.example.com/s?k=mice",
		"https://www.example.com/s?k=keyboards",
	}})

	seeds := sp.StartRequests()
	require.Len(t, seeds, 2)
	assert.Equal(t, "https://www.example.com/s?k=mice", seeds[0].URL)
	assert.Equal(t, "https://www.example.com/s?k=keyboards", seeds[1].URL)
}

func TestRegistry_AvailableListsOnlyImplementedSpiders(t *testing.T) {
	r := newTestRegistry()

	defs := r.Available()
	require.Len(t, defs, 2)
	assert.Equal(t, SpiderTypeAmazon, defs[0].Type)
	assert.Equal(t, SpiderTypeProductPage, defs[1].Type)
}

func TestRegistry_FreshMiddlewarePerSpiderInstance(t *testing.T) {
	r := newTestRegistry()

	def, err := r.Lookup(SpiderTypeAmazon)
	require.NoError(t, err)

	first := def.New(Overrides{}).Middleware()
	second := def.New(Overrides{}).Middleware()

	require.NotEmpty(t, first)
	assert.NotSame(t, first[0], second[0], "each run gets its own dedup set")
}

func TestParseSpiderType(t *testing.T) {
	r := newTestRegistry()

	parsed, err := r.ParseSpiderType("amazon")
	require.NoError(t, err)
	assert.Equal(t, SpiderTypeAmazon, parsed)

	_, err = r.ParseSpiderType("ebay")
	assert.Error(t, err)
}
