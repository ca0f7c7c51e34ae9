package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestProduct(id int64, name, category, price string, inStock bool, rating float64) Product {
	return Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    3,
		InStock:  inStock,
		Rating:   rating,
	}
}

func testCatalog() []Product {
	return []Product{
		newTestProduct(1, "Crystal Wine Glass", "Wine", "349.90", true, 4.7),
		newTestProduct(2, "Bordeaux Glass", "Wine", "89.50", true, 4.3),
		newTestProduct(3, "Stemless Wine Tumbler", "Wine", "59.90", false, 4.0),
		newTestProduct(4, "Cobalt Vase", "Vases", "499.00", true, 4.9),
		newTestProduct(5, "Bud Vase", "Vases", "129.90", true, 4.1),
		newTestProduct(6, "Highball Tumbler", "Tumblers", "119.90", true, 4.2),
		newTestProduct(7, "Old Fashioned Tumbler", "Tumblers", "89.50", true, 4.8),
	}
}

func ids(products []Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []int64
	}{
		{name: "no filters keeps catalog order", query: Query{}, want: []int64{1, 2, 3, 4, 5, 6, 7}},
		{name: "search is case-insensitive", query: Query{Search: "TUMBLER"}, want: []int64{3, 6, 7}},
		{name: "search trims spaces", query: Query{Search: "  vase "}, want: []int64{4, 5}},
		{name: "in stock only", query: Query{Search: "tumbler", InStockOnly: true}, want: []int64{6, 7}},
		{name: "multiple categories", query: Query{Categories: []string{"Vases", "Tumblers"}}, want: []int64{4, 5, 6, 7}},
		{name: "unknown category", query: Query{Categories: []string{"Plates"}}, want: []int64{}},
		{
			name:  "price ascending is stable",
			query: Query{Sort: SortPriceAsc},
			want:  []int64{3, 2, 7, 6, 5, 1, 4},
		},
		{
			name:  "price descending is stable",
			query: Query{Sort: SortPriceDesc, Categories: []string{"Wine", "Tumblers"}},
			want:  []int64{1, 6, 2, 7, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(testCatalog(), tt.query)))
		})
	}
}

func TestPaginate(t *testing.T) {
	catalog := testCatalog()

	page := Paginate(catalog, Query{PageSize: 3, Page: 2})
	assert.Equal(t, []int64{4, 5, 6}, ids(page.Items))
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.PageSize)

	last := Paginate(catalog, Query{PageSize: 3, Page: 3})
	assert.Equal(t, []int64{7}, ids(last.Items))

	beyond := Paginate(catalog, Query{PageSize: 3, Page: 10})
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 7, beyond.Total)

	first := Paginate(catalog, Query{Page: -1})
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, DefaultPageSize, first.PageSize)
	assert.Len(t, first.Items, 7)
}

func TestParseSort(t *testing.T) {
	for _, s := range []string{"", "price-asc", "price-desc"} {
		got, ok := ParseSort(s)
		assert.True(t, ok, s)
		assert.Equal(t, Sort(s), got)
	}
	_, ok := ParseSort("rating")
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"Wine", "Vases", "Tumblers"}, Categories(testCatalog()))
	assert.Empty(t, Categories(nil))
}

func TestHotDeals(t *testing.T) {
	assert.Equal(t, []int64{4, 7, 1, 2}, ids(HotDeals(testCatalog(), 4)))
	assert.Len(t, HotDeals(testCatalog()[:2], 4), 2)
}

func TestShowcase(t *testing.T) {
	assert.Equal(t, []int64{1, 4, 6}, ids(Showcase(testCatalog(), 3)))
	assert.Equal(t, []int64{1, 4}, ids(Showcase(testCatalog(), 2)))
}

func TestRelated(t *testing.T) {
	catalog := testCatalog()

	// Product 1 has rating 4.7: 3 (4.0) is further away than 2 (4.3).
	assert.Equal(t, []int64{3, 2}, ids(Related(catalog, catalog[0], 4)))
	assert.Equal(t, []int64{3}, ids(Related(catalog, catalog[0], 1)))
	assert.Equal(t, []int64{5}, ids(Related(catalog, catalog[3], 4)))
}

func TestAvailable(t *testing.T) {
	p := newTestProduct(1, "Glass", "Wine", "1", true, 0)
	assert.True(t, p.Available(3))
	assert.False(t, p.Available(4))

	p.InStock = false
	assert.False(t, p.Available(1))
}
