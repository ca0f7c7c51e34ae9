// Package handler serves the storefront HTTP API: catalog browsing, the
// per-session cart, checkout and the cart event stream.
package handler

import (
	"net/http"
	"sync"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/order"
	"github.com/xenking/glass-bazaar/internal/domain/product"
	"github.com/xenking/glass-bazaar/internal/storage"
	"github.com/xenking/glass-bazaar/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	// SessionCookie names the cookie carrying the cart session id.
	SessionCookie string
	// SecureCookie marks the session cookie as HTTPS only.
	SecureCookie bool
}

// Handler routes /api requests to the catalog, cart registry and order
// service.
type Handler struct {
	products product.Repository
	carts    *cart.Registry
	viewed   storage.KV
	orders   *order.Service

	imageBaseURL string
	cookie       string
	secure       bool

	mux  *http.ServeMux
	root http.Handler

	// closed ends event streams on shutdown.
	closed    chan struct{}
	closeOnce sync.Once
}

// NewHandler constructs a Handler with the required domain dependencies.
// viewed holds the recently viewed lists and is namespaced per session.
func NewHandler(
	cfg Config,
	products product.Repository,
	carts *cart.Registry,
	viewed storage.KV,
	orders *order.Service,
) *Handler {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	h := &Handler{
		products:     products,
		carts:        carts,
		viewed:       viewed,
		orders:       orders,
		imageBaseURL: cfg.ImageBaseURL,
		cookie:       cfg.SessionCookie,
		secure:       cfg.SecureCookie,
		mux:          http.NewServeMux(),
		closed:       make(chan struct{}),
	}

	h.mux.HandleFunc("GET /api/products", h.listProducts)
	h.mux.HandleFunc("GET /api/products/categories", h.listCategories)
	h.mux.HandleFunc("GET /api/products/hot-deals", h.hotDeals)
	h.mux.HandleFunc("GET /api/products/showcase", h.showcase)
	h.mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	h.mux.HandleFunc("GET /api/recently-viewed", h.recentlyViewed)

	h.mux.HandleFunc("GET /api/cart", h.getCart)
	h.mux.HandleFunc("DELETE /api/cart", h.clearCart)
	h.mux.HandleFunc("POST /api/cart/items", h.addItem)
	h.mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	h.mux.HandleFunc("POST /api/cart/items/{id}/increase", h.increaseItem)
	h.mux.HandleFunc("POST /api/cart/items/{id}/decrease", h.decreaseItem)
	h.mux.HandleFunc("GET /api/cart/events", h.cartEvents)

	h.mux.HandleFunc("POST /api/checkout", h.checkout)
	h.mux.HandleFunc("GET /api/orders", h.listOrders)

	h.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	h.root = h.withSession(h.mux)
	return h
}

// ServeHTTP resolves the cart session and dispatches the request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// Route returns the pattern matching r. It labels metrics and logs with a
// bounded set of values.
func (h *Handler) Route(r *http.Request) string {
	_, pattern := h.mux.Handler(r)
	return httpmiddleware.PatternPath(pattern)
}

// Close ends all open event streams. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait for them.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closed) })
}
