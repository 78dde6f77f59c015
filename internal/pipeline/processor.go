package pipeline

import (
	"context"
	"fmt"
	"strings"

	"prodcat/catalogworker/helpers"
	"prodcat/catalogworker/internal/catalog"
	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
)

// ProductProcessor validates extracted items, normalizes the price, and
// upserts them into the catalog keyed on title. It always returns an item so
// run accounting never breaks: skips and failures are signalled via logging,
// never via the return value, and never abort the run.
type ProductProcessor struct {
	store catalog.Store
	log   *logger.Logger
}

// NewProductProcessor creates a processor backed by the given store
func NewProductProcessor(store catalog.Store) *ProductProcessor {
	return &ProductProcessor{
		store: store,
		log:   logger.ForPipeline(),
	}
}

// ProcessItem persists one raw item. Items missing a title or a price are
// dropped with a warning; persistence failures are logged with the full item
// snapshot and the original item is returned unchanged.
func (p *ProductProcessor) ProcessItem(ctx context.Context, item spider.Item) (out spider.Item) {
	out = item

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Interface("item", item).
				Msg("Error processing product")
			out = item
		}
	}()

	title := strings.TrimSpace(item["title"])
	priceRaw := item["price"]
	imageURL := item["image_url"]

	if title == "" || priceRaw == "" {
		p.log.Warn().
			Str("title", title).
			Str("price", priceRaw).
			Msg("Skipping product with missing required fields")
		return item
	}

	price := helpers.CleanPrice(priceRaw)

	var image *string
	if imageURL != "" {
		image = &imageURL
	}

	product, created, err := p.store.Upsert(ctx, title, price, image)
	if err != nil {
		p.log.Error().
			Err(err).
			Interface("item", item).
			Msg("Error processing product")
		return item
	}

	msg := "Updated existing product"
	if created {
		msg = "Created new product"
	}
	p.log.Info().
		Int64("id", product.ID).
		Str("title", product.Title).
		Msg(msg)

	enriched := item.Clone()
	enriched["product_id"] = fmt.Sprintf("%d", product.ID)
	return enriched
}
