package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/product"
)

// ErrEmptyCart is returned when checking out a cart without items.
var ErrEmptyCart = errors.New("cart is empty")

// ProductNotFoundError indicates a cart line refers to a product that is no
// longer in the catalog.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError indicates a cart line asks for more units than the
// catalog has.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, %d in stock", e.ProductID, e.Requested, e.Available)
}

// Cart is the part of a cart store checkout needs.
type Cart interface {
	Checkout(ctx context.Context, place func(items []cart.LineItem) error) error
}

// Service turns carts into orders.
type Service struct {
	products product.Repository
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{
		products: products,
		orders:   orders,
		now:      time.Now,
	}
}

// Checkout validates every line against current stock and persists the
// order priced from the cart snapshot. Only the ordered lines leave the
// cart.
func (s *Service) Checkout(ctx context.Context, sessionID string, c Cart) (*Order, error) {
	var o *Order
	err := c.Checkout(ctx, func(lines []cart.LineItem) error {
		placed, err := s.place(ctx, sessionID, lines)
		if err != nil {
			return err
		}
		o = placed
		return nil
	})
	if err != nil {
		if o != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) place(ctx context.Context, sessionID string, lines []cart.LineItem) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]OrderItem, len(lines))
	for i, li := range lines {
		p, err := s.products.GetByID(ctx, li.ID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: li.ID}
			}
			return nil, fmt.Errorf("get product: %w", err)
		}
		if !p.Available(li.Quantity) {
			available := p.Stock
			if !p.InStock {
				available = 0
			}
			return nil, &InsufficientStockError{
				ProductID: li.ID,
				Requested: li.Quantity,
				Available: available,
			}
		}

		items[i] = OrderItem{
			ProductID: li.ID,
			Name:      li.Name,
			Price:     li.Price,
			Quantity:  li.Quantity,
		}
	}

	o := &Order{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     items,
		Total:     cart.Summarize(lines).Amount.Round(2),
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// History returns the orders placed by a session, newest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]Order, error) {
	orders, err := s.orders.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
