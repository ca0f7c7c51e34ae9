// Package cart implements the shopping cart state manager.
//
// A Store owns an ordered list of line items and mirrors it to a
// storage.KV under the fixed key StorageKey. Every operation mutates memory,
// then writes the whole list back, then notifies subscribers, all before
// returning. A failed write is reported to the caller; the next successful
// write carries the full state, so the mirror never lags memory by more than
// one mutation.
package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/glass-bazaar/internal/domain/product"
	"github.com/xenking/glass-bazaar/internal/storage"
)

// StorageKey is the key holding the persisted cart snapshot.
const StorageKey = "cart"

// ErrCheckoutInProgress is returned by Checkout while another checkout of
// the same cart has not finished.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// Listener observes cart mutations. It is called synchronously while the
// store is locked and must not call back into the store or block.
type Listener func(Event)

// Store is a cart bound to its persisted mirror. It is safe for concurrent
// use; operations on one Store are serialised.
type Store struct {
	kv storage.KV

	mu          sync.Mutex
	items       []LineItem
	listeners   map[uint64]Listener
	nextID      uint64
	checkingOut bool
}

// Open rehydrates a Store from kv. A missing snapshot yields an empty cart,
// and so does a malformed one, which is logged and otherwise ignored.
func Open(ctx context.Context, kv storage.KV) (*Store, error) {
	s := &Store{
		kv:        kv,
		items:     []LineItem{},
		listeners: make(map[uint64]Listener),
	}

	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "load cart")
	}

	items, err := Decode(data)
	if err != nil {
		zctx.From(ctx).Warn("Discarding malformed cart snapshot",
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return s, nil
	}
	s.items = items
	return s, nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Item returns the line item for id.
func (s *Store) Item(id int64) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// Totals returns the item count and total price of the cart.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.items)
}

// Add puts one unit of p into the cart. An existing line item for p.ID is
// incremented; otherwise a new one with quantity 1 is appended. Stock is not
// checked.
func (s *Store) Add(ctx context.Context, p product.Product) error {
	return s.mutate(ctx, OpAdd, p.ID, func() bool {
		if i := s.index(p.ID); i >= 0 {
			s.items[i].Quantity++
			return true
		}
		s.items = append(s.items, LineItem{Product: p, Quantity: 1})
		return true
	})
}

// Remove deletes the line item for id, if any.
func (s *Store) Remove(ctx context.Context, id int64) error {
	return s.mutate(ctx, OpRemove, id, func() bool {
		i := s.index(id)
		if i < 0 {
			return false
		}
		s.items = slices.Delete(s.items, i, i+1)
		return true
	})
}

// Increase adds one unit to the line item for id. It does not check stock;
// callers are responsible for that.
func (s *Store) Increase(ctx context.Context, id int64) error {
	return s.mutate(ctx, OpIncrease, id, func() bool {
		i := s.index(id)
		if i < 0 {
			return false
		}
		s.items[i].Quantity++
		return true
	})
}

// Decrease removes one unit from the line item for id. A line item reaching
// zero is removed.
func (s *Store) Decrease(ctx context.Context, id int64) error {
	return s.mutate(ctx, OpDecrease, id, func() bool {
		i := s.index(id)
		if i < 0 {
			return false
		}
		if s.items[i].Quantity <= 1 {
			s.items = slices.Delete(s.items, i, i+1)
			return true
		}
		s.items[i].Quantity--
		return true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, OpClear, 0, func() bool {
		changed := len(s.items) > 0
		s.items = []LineItem{}
		return changed
	})
}

// Checkout passes a snapshot of the line items to place. When place
// succeeds, exactly the placed quantities are taken out of the cart; items
// added while place runs stay in the cart. The store is not locked during
// place, but a second Checkout fails with ErrCheckoutInProgress until the
// first one returns.
func (s *Store) Checkout(ctx context.Context, place func(items []LineItem) error) error {
	s.mu.Lock()
	if s.checkingOut {
		s.mu.Unlock()
		return ErrCheckoutInProgress
	}
	s.checkingOut = true
	placed := slices.Clone(s.items)
	s.mu.Unlock()

	if err := place(placed); err != nil {
		s.mu.Lock()
		s.checkingOut = false
		s.mu.Unlock()
		return err
	}

	return s.mutate(ctx, OpCheckout, 0, func() bool {
		s.checkingOut = false
		changed := false
		for _, li := range placed {
			i := s.index(li.ID)
			if i < 0 {
				continue
			}
			changed = true
			if s.items[i].Quantity <= li.Quantity {
				s.items = slices.Delete(s.items, i, i+1)
				continue
			}
			s.items[i].Quantity -= li.Quantity
		}
		return changed
	})
}

func (s *Store) inCheckout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkingOut
}

// Subscribe registers fn for every subsequent mutation that changes the cart.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// Subscribers returns the number of registered listeners.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// mutate applies fn, flushes the result and notifies listeners when fn
// reports a change. The flush happens even for no-ops.
func (s *Store) mutate(ctx context.Context, op Op, id int64, fn func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := fn()
	if err := s.kv.Set(ctx, StorageKey, Encode(s.items)); err != nil {
		return errors.Wrapf(err, "flush cart after %s", op)
	}
	if !changed {
		return nil
	}

	for _, fn := range s.listeners {
		fn(Event{Op: op, ProductID: id, Items: slices.Clone(s.items)})
	}
	return nil
}

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.items, func(li LineItem) bool { return li.ID == id })
}
