package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/glass-bazaar/db"
	"github.com/xenking/glass-bazaar/internal/domain/product"
)

var _ product.Repository = (*Static)(nil)

// Static is an in-memory, read-only product catalog.
type Static struct {
	products []product.Product
	byID     map[int64]int
}

// NewStatic builds a catalog over products, keeping their order.
// Product identifiers must be unique.
func NewStatic(products []product.Product) (*Static, error) {
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if _, dup := byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		byID[p.ID] = i
	}
	return &Static{products: slices.Clone(products), byID: byID}, nil
}

// Embedded returns the catalog bundled into the binary.
func Embedded() (*Static, error) {
	products, err := DecodeProducts(db.Products)
	if err != nil {
		return nil, errors.Wrap(err, "embedded catalog")
	}
	return NewStatic(products)
}

// List returns all products in dataset order.
func (s *Static) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(s.products), nil
}

// GetByID returns a single product by its identifier.
func (s *Static) GetByID(_ context.Context, id int64) (*product.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := s.products[i]
	return &p, nil
}
