package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/glass-bazaar/internal/domain/product"
)

// LineItem is a product snapshot paired with a purchase quantity.
// The product fields are copied when the item is first added and are not
// refreshed from the catalog afterwards.
type LineItem struct {
	product.Product
	Quantity int
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Totals summarises a cart.
type Totals struct {
	// Count is the sum of all quantities.
	Count  int
	Amount decimal.Decimal
}

// Summarize computes the totals of items.
func Summarize(items []LineItem) Totals {
	t := Totals{Amount: decimal.Zero}
	for _, li := range items {
		t.Count += li.Quantity
		t.Amount = t.Amount.Add(li.Subtotal())
	}
	return t
}

// Op names a cart mutation.
type Op string

const (
	OpAdd      Op = "add"
	OpRemove   Op = "remove"
	OpIncrease Op = "increase"
	OpDecrease Op = "decrease"
	OpClear    Op = "clear"
	OpCheckout Op = "checkout"
)

// Event is delivered to subscribers after a mutation changed the cart.
type Event struct {
	Op Op
	// ProductID is zero for OpClear and OpCheckout.
	ProductID int64
	// Items is the cart content after the mutation. Subscribers own it.
	Items []LineItem
}
