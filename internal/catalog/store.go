package catalog

import (
	"context"
	"time"
)

// Product is a persisted catalog entry. Title is the natural key: a second
// scrape of the same titled product overwrites price and image_url instead of
// inserting a duplicate.
type Product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter holds the listing API's query parameters
type ListFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	SortDir  string
	Page     int
	PerPage  int
}

// ListResult is one page of products plus pagination totals
type ListResult struct {
	Products   []Product
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// Store is the catalog persistence boundary
type Store interface {
	// Upsert inserts or updates a product matched on title and reports
	// whether a new record was created
	Upsert(ctx context.Context, title string, price float64, imageURL *string) (Product, bool, error)

	// List returns a filtered, sorted, paginated slice of the catalog
	List(ctx context.Context, filter ListFilter) (ListResult, error)
}
