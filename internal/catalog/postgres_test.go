package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilter(t *testing.T) {
	f := normalizeFilter(ListFilter{})
	assert.Equal(t, "created_at", f.SortBy)
	assert.Equal(t, "desc", f.SortDir)
	assert.Equal(t, 10, f.PerPage)
	assert.Equal(t, 1, f.Page)

	f = normalizeFilter(ListFilter{SortBy: "price", SortDir: "asc", PerPage: 500, Page: 3})
	assert.Equal(t, "price", f.SortBy)
	assert.Equal(t, "asc", f.SortDir)
	assert.Equal(t, 100, f.PerPage)
	assert.Equal(t, 3, f.Page)

	// Unknown sort column falls back to the default
	f = normalizeFilter(ListFilter{SortBy: "id; DROP TABLE products"})
	assert.Equal(t, "created_at", f.SortBy)
}

func TestBuildListWhere(t *testing.T) {
	where, args := buildListWhere(ListFilter{})
	assert.Equal(t, "", where)
	assert.Nil(t, args)

	where, args = buildListWhere(ListFilter{Search: "laptop"})
	assert.Equal(t, " WHERE title ILIKE $1", where)
	assert.Equal(t, []interface{}{"%laptop%"}, args)

	min := 10.0
	max := 99.5
	where, args = buildListWhere(ListFilter{Search: "laptop", MinPrice: &min, MaxPrice: &max})
	assert.Equal(t, " WHERE title ILIKE $1 AND price >= $2 AND price <= $3", where)
	assert.Len(t, args, 3)

	where, args = buildListWhere(ListFilter{MinPrice: &min})
	assert.Equal(t, " WHERE price >= $1", where)
	assert.Equal(t, []interface{}{10.0}, args)
}
