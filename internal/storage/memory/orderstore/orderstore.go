// Package orderstore keeps order history in process memory.
package orderstore

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/glass-bazaar/internal/domain/order"
)

var _ order.Repository = (*Store)(nil)

// Store backs checkout when no database is configured.
type Store struct {
	mu     sync.RWMutex
	orders []order.Order
}

// New returns an empty order history.
func New() *Store {
	return &Store{}
}

// Create records o.
func (r *Store) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.ID == o.ID {
			return errors.Errorf("order %q already exists", o.ID)
		}
	}
	stored := *o
	stored.Items = slices.Clone(o.Items)
	r.orders = append(r.orders, stored)
	return nil
}

// ListBySession returns the orders of sessionID, newest first.
func (r *Store) ListBySession(_ context.Context, sessionID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if o.SessionID != sessionID {
			continue
		}
		o.Items = slices.Clone(o.Items)
		out = append(out, o)
	}
	return out, nil
}
