package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/service"
)

type gateProvider struct {
	user *domain.User
	gate chan struct{}
}

func (p *gateProvider) Register(_ context.Context, _ ports.RegisterInput) (*domain.User, string, error) {
	return nil, "", domain.ErrInvalidCredentials
}

func (p *gateProvider) Login(_ context.Context, _ ports.Credentials) (*domain.User, string, error) {
	return nil, "", domain.ErrInvalidCredentials
}

func (p *gateProvider) Logout(_ context.Context, _ string) error { return nil }

func (p *gateProvider) Verify(_ context.Context, _ string) (*domain.User, error) {
	if p.gate != nil {
		<-p.gate
	}
	if p.user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return p.user, nil
}

func guardedContext(t *testing.T, store *service.SessionStore, timeout time.Duration) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		t.Cleanup(cancel)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	WithStore(c, store)
	return c, rec
}

func TestGuard_PendingWhileResolving(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	store := service.NewSessionStore(&gateProvider{user: &domain.User{ID: "u1"}, gate: gate}, "tok", zerolog.Nop())
	go store.Resolve(context.Background())

	c, rec := guardedContext(t, store, 30*time.Millisecond)

	called := false
	err := Guard("/login")(func(echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil {
		t.Fatalf("guard error: %v", err)
	}

	if called {
		t.Fatalf("handler must not run while resolving")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 pending, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Fatalf("guard redirected during resolution: %q", loc)
	}
}

func TestGuard_AnonymousRedirectsWithHistoryReplace(t *testing.T) {
	store := service.NewSessionStore(&gateProvider{}, "", zerolog.Nop())
	store.Resolve(context.Background())

	c, rec := guardedContext(t, store, 0)

	err := Guard("/login")(func(echo.Context) error {
		t.Fatalf("handler must not run for anonymous")
		return nil
	})(c)
	if err != nil {
		t.Fatalf("guard error: %v", err)
	}

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if rec.Header().Get(HistoryHeader) != "replace" {
		t.Fatalf("expected history replacement header")
	}
}

func TestGuard_AuthenticatedPassesThrough(t *testing.T) {
	store := service.NewSessionStore(&gateProvider{user: &domain.User{ID: "u1"}}, "tok", zerolog.Nop())
	store.Resolve(context.Background())

	c, rec := guardedContext(t, store, 0)

	called := false
	err := Guard("/login")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("guard error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v code=%d", called, rec.Code)
	}
}

func TestGuard_DecisionWaitsForLateResolution(t *testing.T) {
	gate := make(chan struct{})
	store := service.NewSessionStore(&gateProvider{user: &domain.User{ID: "u1"}, gate: gate}, "tok", zerolog.Nop())
	go store.Resolve(context.Background())

	// Resolution completes while the guard is waiting.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gate)
	}()

	c, rec := guardedContext(t, store, 0)

	err := Guard("/login")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("guard error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected deferred allow, got %d", rec.Code)
	}
}

func TestRBAC_AllowsListedRoleOnly(t *testing.T) {
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin}
	store := service.NewSessionStore(&gateProvider{user: admin}, "tok", zerolog.Nop())
	store.Resolve(context.Background())

	c, rec := guardedContext(t, store, 0)
	err := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("admin should pass: err=%v code=%d", err, rec.Code)
	}

	member := &domain.User{ID: "m1", Role: domain.RoleMember}
	store = service.NewSessionStore(&gateProvider{user: member}, "tok", zerolog.Nop())
	store.Resolve(context.Background())

	c, rec = guardedContext(t, store, 0)
	err = RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("member must not pass admin check")
		return nil
	})(c)
	if err != nil {
		t.Fatalf("rbac error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
