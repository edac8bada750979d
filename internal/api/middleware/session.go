package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/core/service"
)

const (
	// TokenCookie is the cookie the SPA persists the session token in.
	TokenCookie = "token"

	sessionKey = "session_store"
)

// Session attaches each request's SessionStore to the echo context and
// starts credential resolution. It never rejects: public routes see an
// anonymous store, and the Guard decides for protected ones.
func Session(registry *service.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if cookie, err := c.Cookie(TokenCookie); err == nil {
				token = cookie.Value
			}

			store := registry.For(c.Request().Context(), token)
			c.Set(sessionKey, store)
			return next(c)
		}
	}
}

// StoreFrom returns the request's SessionStore, or nil when the Session
// middleware did not run.
func StoreFrom(c echo.Context) *service.SessionStore {
	store, _ := c.Get(sessionKey).(*service.SessionStore)
	return store
}

// WithStore injects a store directly; used by tests and by handlers that
// build a fresh store for a sign-in attempt.
func WithStore(c echo.Context, store *service.SessionStore) {
	c.Set(sessionKey, store)
}
