package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/product"
)

// maxBodySize bounds request bodies; the cart API only accepts tiny objects.
const (
	maxBodySize = 4 << 10
	// unknownStockLimit caps increases of items no longer in the catalog.
	unknownStockLimit = 99
)

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	store, err := h.carts.Open(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		internalError(w, r, err)
		return nil, false
	}
	return store, true
}

func (h *Handler) writeCart(w http.ResponseWriter, store *cart.Store) {
	items := store.Items()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCart(e, items) })
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	h.writeCart(w, store)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := decodeProductID(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, errors.Wrap(err, "get product"))
		return
	}

	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	current, _ := store.Item(id)
	if !p.InStock {
		writeError(w, http.StatusConflict, "out of stock")
		return
	}
	if !p.Available(current.Quantity + 1) {
		writeError(w, http.StatusConflict, "no more stock")
		return
	}

	if err := store.Add(ctx, *p); err != nil {
		internalError(w, r, err)
		return
	}
	h.writeCart(w, store)
}

// decodeProductID reads {"productId": N}.
func decodeProductID(body io.Reader) (int64, error) {
	var (
		id    int64
		found bool
	)
	d := jx.Decode(body, 256)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		v, err := d.Int64()
		if err != nil {
			return err
		}
		id, found = v, true
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "invalid request body")
	}
	if !found {
		return 0, errors.New("productId is required")
	}
	return id, nil
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(store *cart.Store, id int64) error {
		return store.Remove(r.Context(), id)
	})
}

func (h *Handler) decreaseItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(store *cart.Store, id int64) error {
		return store.Decrease(r.Context(), id)
	})
}

func (h *Handler) increaseItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if li, found := store.Item(id); found {
		limit, err := h.stockLimit(r, id)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if li.Quantity >= limit {
			writeError(w, http.StatusConflict, "no more stock")
			return
		}
	}
	if err := store.Increase(r.Context(), id); err != nil {
		internalError(w, r, err)
		return
	}
	h.writeCart(w, store)
}

// stockLimit returns the live catalog stock of id. Products gone from the
// catalog are capped at unknownStockLimit.
func (h *Handler) stockLimit(r *http.Request, id int64) (int, error) {
	p, err := h.products.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return unknownStockLimit, nil
	case err != nil:
		return 0, errors.Wrap(err, "get product")
	}
	return p.Stock, nil
}

// mutateItem applies op to the {id} line item. Unknown ids are a no-op and
// still answer with the cart.
func (h *Handler) mutateItem(w http.ResponseWriter, r *http.Request, op func(*cart.Store, int64) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if err := op(store, id); err != nil {
		internalError(w, r, err)
		return
	}
	h.writeCart(w, store)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		internalError(w, r, err)
		return
	}
	h.writeCart(w, store)
}
