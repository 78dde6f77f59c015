package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "prodcat/catalogworker/pkg/errors"
)

// sortColumns whitelists the sortable columns exposed by the listing API
var sortColumns = map[string]string{
	"title":      "title",
	"price":      "price",
	"created_at": "created_at",
}

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Init creates the products table when it does not exist yet
func (s *PostgresStore) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			id         BIGSERIAL PRIMARY KEY,
			title      TEXT NOT NULL UNIQUE,
			price      NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			image_url  TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// Upsert inserts a product or overwrites price/image_url of the existing row
// with the same title. The single statement keeps the operation atomic under
// concurrent extraction of the same product.
func (s *PostgresStore) Upsert(ctx context.Context, title string, price float64, imageURL *string) (Product, bool, error) {
	query := `
		INSERT INTO products (title, price, image_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (title) DO UPDATE SET
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
		RETURNING id, title, price, image_url, created_at, updated_at, (xmax = 0) AS created`

	var p Product
	var created bool
	err := s.pool.QueryRow(ctx, query, title, price, imageURL).Scan(
		&p.ID, &p.Title, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt, &created,
	)
	if err != nil {
		return Product{}, false, apperrors.NewPersistence("failed to upsert product", err)
	}

	return p, created, nil
}

// List returns one page of the catalog matching the filter
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	filter = normalizeFilter(filter)

	where, args := buildListWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM products" + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, apperrors.NewPersistence("failed to count products", err)
	}

	query := fmt.Sprintf(
		"SELECT id, title, price, image_url, created_at, updated_at FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		where,
		sortColumns[filter.SortBy],
		strings.ToUpper(filter.SortDir),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, apperrors.NewPersistence("failed to query products", err)
	}
	defer rows.Close()

	products := make([]Product, 0, filter.PerPage)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return ListResult{}, apperrors.NewPersistence("failed to scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, apperrors.NewPersistence("failed to read products", err)
	}

	return ListResult{
		Products:   products,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PerPage))),
	}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// normalizeFilter clamps pagination and falls back to default sorting
func normalizeFilter(filter ListFilter) ListFilter {
	if _, ok := sortColumns[filter.SortBy]; !ok {
		filter.SortBy = "created_at"
	}
	if filter.SortDir != "asc" && filter.SortDir != "desc" {
		filter.SortDir = "desc"
	}
	if filter.PerPage < 1 {
		filter.PerPage = 10
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	return filter
}

// buildListWhere assembles the WHERE clause and its positional arguments
func buildListWhere(filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
