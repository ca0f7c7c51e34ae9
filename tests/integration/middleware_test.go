//go:build integration

package integration

import (
	"context"
	"net/http"
	"strconv"
	"testing"
)

func TestRequestID(t *testing.T) {
	resp := doGet(t, "/api/products/categories")
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID header not present")
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/api/cart", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("X-Request-ID", "checkout-trace-1")

	resp, err = httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "checkout-trace-1" {
		t.Errorf("X-Request-ID: got %q, want %q", got, "checkout-trace-1")
	}
}

func TestSession_CookieIssued(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "cart_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("cart_session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("cart_session cookie is not HttpOnly")
	}
	if got := resp.Header.Get("X-Cart-Session"); got != cookie.Value {
		t.Errorf("X-Cart-Session %q does not match cookie %q", got, cookie.Value)
	}
}

func TestSession_InvalidReplaced(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/cart", "../other:cart", nil)
	defer resp.Body.Close()

	got := resp.Header.Get("X-Cart-Session")
	if got == "" || got == "../other:cart" {
		t.Fatalf("invalid session was not replaced, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, baseURL+"/api/cart/items", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Origin", "http://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Cart-Session")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("Access-Control-Allow-Origin header not present")
	}
	if resp.Header.Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers header not present")
	}
}

func TestRateLimit_Countdown(t *testing.T) {
	session := newSession(t)

	first := doRequest(t, http.MethodGet, "/api/cart", session, nil)
	first.Body.Close()
	second := doRequest(t, http.MethodGet, "/api/cart", session, nil)
	second.Body.Close()

	if first.Header.Get("X-RateLimit-Limit") == "" {
		t.Fatal("X-RateLimit-Limit header not present")
	}
	a, err := strconv.Atoi(first.Header.Get("X-RateLimit-Remaining"))
	if err != nil {
		t.Fatalf("parse remaining: %v", err)
	}
	b, err := strconv.Atoi(second.Header.Get("X-RateLimit-Remaining"))
	if err != nil {
		t.Fatalf("parse remaining: %v", err)
	}
	// A window boundary between the two requests resets the counter.
	if b != a-1 && b < a {
		t.Errorf("remaining: got %d after %d, want %d", b, a, a-1)
	}
}
