package product

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Sort orders a listing.
type Sort string

const (
	SortNone      Sort = ""
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// DefaultPageSize is the number of products per listing page.
const DefaultPageSize = 10

// Query describes a catalog listing request.
type Query struct {
	// Search matches product names case-insensitively by substring.
	Search string
	// Categories restricts results to any of the given categories.
	Categories  []string
	InStockOnly bool
	Sort        Sort
	// Page is 1-based. Values below 1 select the first page.
	Page     int
	PageSize int
}

// Page is a slice of a filtered and sorted listing.
type Page struct {
	Items    []Product
	Total    int
	Page     int
	PageSize int
}

// ParseSort converts a query parameter into a Sort, reporting whether it is
// one of the known values.
func ParseSort(s string) (Sort, bool) {
	switch v := Sort(s); v {
	case SortNone, SortPriceAsc, SortPriceDesc:
		return v, true
	default:
		return SortNone, false
	}
}

// Filter returns the products matching q in listing order, without paging.
func Filter(products []Product, q Query) []Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, p.Category) {
			continue
		}
		if q.InStockOnly && !p.InStock {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	}
	return out
}

// Paginate filters, sorts and pages products according to q.
func Paginate(products []Product, q Query) Page {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := max(q.Page, 1)

	filtered := Filter(products, q)
	start := min((page-1)*size, len(filtered))
	end := min(start+size, len(filtered))

	return Page{
		Items:    filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	}
}

// Categories returns the distinct categories in first-seen order.
func Categories(products []Product) []string {
	var out []string
	for _, p := range products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

// HotDeals returns up to n in-stock products with the highest rating.
func HotDeals(products []Product, n int) []Product {
	out := Filter(products, Query{InStockOnly: true})
	slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(b.Rating, a.Rating) })
	return out[:min(n, len(out))]
}

// Showcase returns the first product of each of the first n categories.
func Showcase(products []Product, n int) []Product {
	var out []Product
	for _, c := range Categories(products) {
		if len(out) == n {
			break
		}
		i := slices.IndexFunc(products, func(p Product) bool { return p.Category == c })
		out = append(out, products[i])
	}
	return out
}

// Related returns up to n products sharing p's category, the rating
// furthest from p's first. p itself is excluded.
func Related(products []Product, p Product, n int) []Product {
	var out []Product
	for _, c := range products {
		if c.ID != p.ID && c.Category == p.Category {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Product) int {
		return cmp.Compare(math.Abs(b.Rating-p.Rating), math.Abs(a.Rating-p.Rating))
	})
	return out[:min(n, len(out))]
}
