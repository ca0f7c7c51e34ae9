package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int
	InStock     bool
	Image       string
	Rating      float64
	Brand       string
	Description string
	CreatedAt   time.Time
}

// Available reports whether qty units of the product can be sold.
func (p Product) Available(qty int) bool {
	return p.InStock && qty <= p.Stock
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}
