package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/api/metrics"
)

const (
	// resolveBudget bounds how long the guard waits for session resolution
	// before answering "still pending" instead of a routing decision.
	resolveBudget = 3 * time.Second

	// HistoryHeader tells the SPA shell to replace the history entry on
	// redirect, so back-navigation cannot return to the protected page.
	HistoryHeader = "X-History"
)

// Guard gates protected destinations on session state. It is a pure
// function of the store's snapshot and owns no state itself.
//
// A resolving session never redirects. The guard waits up to resolveBudget
// for resolution; past that it answers 503 with Retry-After and the client
// retries. Only a session settled as anonymous is sent to the sign-in page.
func Guard(signInPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := StoreFrom(c)
			if store == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), resolveBudget)
			snap := store.Await(ctx)
			cancel()

			if snap.Resolving {
				metrics.GuardDecisionsTotal.WithLabelValues("pending").Inc()
				c.Response().Header().Set("Retry-After", "1")
				return c.NoContent(http.StatusServiceUnavailable)
			}

			if !snap.Authenticated {
				metrics.GuardDecisionsTotal.WithLabelValues("redirect").Inc()
				c.Response().Header().Set(HistoryHeader, "replace")
				return c.Redirect(http.StatusSeeOther, signInPath)
			}

			metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()
			return next(c)
		}
	}
}
