package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/order"
)

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Checkout(r.Context(), SessionFrom(r.Context()), store)
	if err != nil {
		if status, msg, ok := mapOrderError(err); ok {
			writeError(w, status, msg)
			return
		}
		internalError(w, r, errors.Wrap(err, "checkout"))
		return
	}

	zctx.From(r.Context()).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("lines", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)),
	)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

// mapOrderError converts domain errors to client-facing statuses.
func mapOrderError(err error) (int, string, bool) {
	if errors.Is(err, cart.ErrCheckoutInProgress) {
		return http.StatusConflict, err.Error(), true
	}
	if errors.Is(err, order.ErrEmptyCart) {
		return http.StatusUnprocessableEntity, err.Error(), true
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		return http.StatusUnprocessableEntity, pnfErr.Error(), true
	}

	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusUnprocessableEntity, stockErr.Error(), true
	}

	return 0, "", false
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.History(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			encodeOrder(e, o)
		}
		e.ArrEnd()
	})
}
