// Package httpmiddleware provides the net/http middleware chain of the API
// server.
package httpmiddleware

import (
	"net/http"
	"strings"
)

// Middleware decorates an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost one,
// so it sees the request first.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder maps a request to the route pattern serving it, or "" when no
// route matches.
type RouteFinder func(r *http.Request) string

// MuxRoutes returns a RouteFinder resolving patterns registered on mux.
func MuxRoutes(mux *http.ServeMux) RouteFinder {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return PatternPath(pattern)
	}
}

// PatternPath strips the method from a ServeMux pattern, so
// "GET /api/products/{id}" becomes "/api/products/{id}".
func PatternPath(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return strings.TrimLeft(path, " \t")
	}
	return pattern
}

// routeOrUnknown keeps label cardinality bounded for unmatched paths.
func routeOrUnknown(find RouteFinder, r *http.Request) string {
	if find == nil {
		return "unknown"
	}
	if route := find(r); route != "" {
		return route
	}
	return "unknown"
}

// statusWriter records the status code and body size written by the next
// handler. Unwrap keeps http.ResponseController working through it.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
