package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// DefaultSessionCookie is the cookie carrying the cart session id.
	DefaultSessionCookie = "cart_session"
	// SessionHeader lets non-browser clients pass the session explicitly.
	SessionHeader = "X-Cart-Session"
)

type sessionKey struct{}

// SessionFrom returns the cart session attached to ctx.
func SessionFrom(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}

// withSession attaches the caller's cart session to the request context,
// issuing a new one when the request carries none or an invalid one.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.requestSession(r)
		if !ok {
			session = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     h.cookie,
				Value:    session,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, session)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func (h *Handler) requestSession(r *http.Request) (string, bool) {
	if v := r.Header.Get(SessionHeader); v != "" {
		return parseSession(v)
	}
	if c, err := r.Cookie(h.cookie); err == nil {
		return parseSession(c.Value)
	}
	return "", false
}

// Session ids double as storage key prefixes, so only canonical UUIDs are
// accepted.
func parseSession(v string) (string, bool) {
	id, err := uuid.Parse(v)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
