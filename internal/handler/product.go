package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/glass-bazaar/internal/domain/product"
	"github.com/xenking/glass-bazaar/internal/domain/viewed"
	"github.com/xenking/glass-bazaar/internal/storage"
)

const (
	hotDealsCount = 4
	showcaseCount = 3
	relatedCount  = 4
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}

	page := product.Paginate(products, q)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) { h.encodeProducts(e, page.Items) })
			e.Field("total", func(e *jx.Encoder) { e.Int(page.Total) })
			e.Field("page", func(e *jx.Encoder) { e.Int(page.Page) })
			e.Field("pageSize", func(e *jx.Encoder) { e.Int(page.PageSize) })
		})
	})
}

func parseQuery(r *http.Request) (product.Query, error) {
	values := r.URL.Query()
	// Listings hide out of stock products unless asked with inStock=false.
	q := product.Query{
		Search:      values.Get("search"),
		Categories:  values["category"],
		InStockOnly: true,
	}

	if v := values.Get("inStock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			return q, errors.Errorf("invalid inStock %q", v)
		}
		q.InStockOnly = inStock
	}

	sort, ok := product.ParseSort(values.Get("sort"))
	if !ok {
		return q, errors.Errorf("invalid sort %q", values.Get("sort"))
	}
	q.Sort = sort

	if v := values.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, errors.Errorf("invalid page %q", v)
		}
		q.Page = page
	}
	return q, nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}
	categories := product.Categories(products)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			e.Str(c)
		}
		e.ArrEnd()
	})
}

func (h *Handler) hotDeals(w http.ResponseWriter, r *http.Request) {
	h.listSelection(w, r, func(products []product.Product) []product.Product {
		return product.HotDeals(products, hotDealsCount)
	})
}

func (h *Handler) showcase(w http.ResponseWriter, r *http.Request) {
	h.listSelection(w, r, func(products []product.Product) []product.Product {
		return product.Showcase(products, showcaseCount)
	})
}

func (h *Handler) listSelection(w http.ResponseWriter, r *http.Request, pick func([]product.Product) []product.Product) {
	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}
	selected := pick(products)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, selected) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
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
	products, err := h.products.List(ctx)
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}
	related := product.Related(products, *p, relatedCount)

	if _, err := viewed.Record(ctx, h.viewedKV(r), id); err != nil {
		zctx.From(ctx).Warn("Record recently viewed", zap.Int64("product_id", id), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, *p) })
			e.Field("related", func(e *jx.Encoder) { h.encodeProducts(e, related) })
		})
	})
}

func (h *Handler) recentlyViewed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := viewed.List(ctx, h.viewedKV(r))
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list recently viewed"))
		return
	}

	products := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		p, err := h.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			internalError(w, r, errors.Wrap(err, "get product"))
			return
		}
		products = append(products, *p)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, products) })
}

func (h *Handler) viewedKV(r *http.Request) storage.KV {
	return storage.Namespace(h.viewed, SessionFrom(r.Context()))
}

// pathID parses the {id} path segment, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}
