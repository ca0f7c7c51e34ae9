//go:build integration

package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

type addItem struct {
	ProductID int64 `json:"productId"`
}

func TestCart_Scenario(t *testing.T) {
	session := newSession(t)

	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 2}), http.StatusOK)
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 2}), http.StatusOK)
	c := expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 9}), http.StatusOK)

	if len(c.Items) != 2 || c.Items[0].Quantity != 2 || c.Items[1].Quantity != 1 {
		t.Fatalf("unexpected cart %+v", c.Items)
	}
	if c.ItemCount != 3 || c.Total != 218.9 {
		t.Fatalf("expected 3 items totalling 218.9, got %d / %v", c.ItemCount, c.Total)
	}

	c = expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/9/increase", session, nil), http.StatusOK)
	c = expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/2/decrease", session, nil), http.StatusOK)
	c = expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/2/decrease", session, nil), http.StatusOK)
	if len(c.Items) != 1 || c.Items[0].ID != 9 || c.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart after decrease %+v", c.Items)
	}

	c = expectStatus[cartResponse](t, doRequest(t, http.MethodDelete, "/api/cart/items/9", session, nil), http.StatusOK)
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", c.Items)
	}
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	a, b := newSession(t), newSession(t)

	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", a, addItem{ProductID: 1}), http.StatusOK)

	c := expectStatus[cartResponse](t, doRequest(t, http.MethodGet, "/api/cart", b, nil), http.StatusOK)
	if len(c.Items) != 0 {
		t.Fatalf("session b sees items of session a: %+v", c.Items)
	}
}

func TestCart_StockLimits(t *testing.T) {
	session := newSession(t)

	body := expectStatus[errorResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 3}), http.StatusConflict)
	if body.Message != "out of stock" {
		t.Errorf("unexpected message %q", body.Message)
	}
	expectStatus[errorResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 999}), http.StatusNotFound)

	// Product 6 has two units.
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 6}), http.StatusOK)
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/6/increase", session, nil), http.StatusOK)

	body = expectStatus[errorResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/6/increase", session, nil), http.StatusConflict)
	if body.Message != "no more stock" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestCart_UnknownItemIsNoop(t *testing.T) {
	session := newSession(t)
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 13}), http.StatusOK)

	c := expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items/12/decrease", session, nil), http.StatusOK)
	if c.ItemCount != 1 {
		t.Fatalf("expected cart unchanged, got %+v", c)
	}
}

func TestCheckout(t *testing.T) {
	session := newSession(t)

	body := expectStatus[errorResponse](t, doRequest(t, http.MethodPost, "/api/checkout", session, nil), http.StatusUnprocessableEntity)
	if body.Message != "cart is empty" {
		t.Errorf("unexpected message %q", body.Message)
	}

	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 13}), http.StatusOK)
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 13}), http.StatusOK)
	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 10}), http.StatusOK)

	o := expectStatus[orderResponse](t, doRequest(t, http.MethodPost, "/api/checkout", session, nil), http.StatusCreated)
	if o.ID == "" || len(o.Items) != 2 {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.Total != 588.8 {
		t.Errorf("expected total 588.8, got %v", o.Total)
	}

	c := expectStatus[cartResponse](t, doRequest(t, http.MethodGet, "/api/cart", session, nil), http.StatusOK)
	if len(c.Items) != 0 {
		t.Fatalf("cart not cleared after checkout: %+v", c.Items)
	}

	history := expectStatus[[]orderResponse](t, doRequest(t, http.MethodGet, "/api/orders", session, nil), http.StatusOK)
	if len(history) != 1 || history[0].ID != o.ID {
		t.Fatalf("unexpected order history %+v", history)
	}
}

func TestCartEvents(t *testing.T) {
	session := newSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/cart/events", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("X-Cart-Session", session)

	// The shared client has a timeout shorter than the stream.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	events := bufio.NewScanner(resp.Body)
	next := func() cartResponse {
		t.Helper()
		for events.Scan() {
			if data, ok := strings.CutPrefix(events.Text(), "data: "); ok {
				var c cartResponse
				if err := json.Unmarshal([]byte(data), &c); err != nil {
					t.Fatalf("decode event: %v", err)
				}
				return c
			}
		}
		t.Fatalf("stream ended: %v", events.Err())
		return cartResponse{}
	}

	if c := next(); len(c.Items) != 0 {
		t.Fatalf("expected empty initial cart, got %+v", c.Items)
	}

	expectStatus[cartResponse](t, doRequest(t, http.MethodPost, "/api/cart/items", session, addItem{ProductID: 5}), http.StatusOK)

	c := next()
	if len(c.Items) != 1 || c.Items[0].ID != 5 {
		t.Fatalf("unexpected event %+v", c.Items)
	}
}
