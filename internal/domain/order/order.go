package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a completed checkout of a cart.
type Order struct {
	ID        string
	SessionID string
	Items     []OrderItem
	Total     decimal.Decimal
	CreatedAt time.Time
}

// OrderItem represents a single line item in an order, priced as it was in
// the cart.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	ListBySession(ctx context.Context, sessionID string) ([]Order, error)
}
