package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
)

// cartEvents streams the cart as server-sent events: the current content
// first, then one "cart" event per mutation. Slow readers only see the
// latest state.
func (h *Handler) cartEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !isNotSupported(err) {
		internalError(w, r, err)
		return
	}

	pending := make(chan []cart.LineItem, 1)
	unsubscribe := store.Subscribe(func(ev cart.Event) {
		for {
			select {
			case pending <- ev.Items:
				return
			default:
			}
			select {
			case <-pending:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(items []cart.LineItem) bool {
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		h.encodeCart(e, items)

		if _, err := w.Write([]byte("event: cart\ndata: ")); err != nil {
			return false
		}
		if _, err := w.Write(e.Bytes()); err != nil {
			return false
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			zctx.From(ctx).Debug("Flush cart event", zap.Error(err))
			return false
		}
		return true
	}

	if !send(store.Items()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closed:
			return
		case items := <-pending:
			if !send(items) {
				return
			}
		}
	}
}

func isNotSupported(err error) bool {
	return errors.Is(err, http.ErrNotSupported)
}
