package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/api/middleware"
	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/service"
)

type stubIdentity struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*domain.User, string, error)
	loginFn    func(ctx context.Context, creds ports.Credentials) (*domain.User, string, error)
	logoutFn   func(ctx context.Context, token string) error
	verifyFn   func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubIdentity) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, string, error) {
	return s.registerFn(ctx, input)
}

func (s *stubIdentity) Login(ctx context.Context, creds ports.Credentials) (*domain.User, string, error) {
	return s.loginFn(ctx, creds)
}

func (s *stubIdentity) Logout(ctx context.Context, token string) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, token)
	}
	return nil
}

func (s *stubIdentity) Verify(ctx context.Context, token string) (*domain.User, error) {
	return s.verifyFn(ctx, token)
}

func authContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.TokenCookie {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubIdentity{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*domain.User, string, error) {
			if input.Email != "alice@example.com" {
				t.Fatalf("unexpected email: %s", input.Email)
			}
			return &domain.User{ID: "u1", Name: input.Name, Email: input.Email, Role: domain.RoleMember}, "tok-1", nil
		},
	}
	registry := service.NewSessionRegistry(stub, time.Hour, zerolog.Nop())
	h := NewAuthHandler(registry, CookieSettings{})

	c, rec := authContext(http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["is_authenticated"] != true {
		t.Fatalf("expected authenticated response: %+v", resp)
	}

	ck := sessionCookie(t, rec)
	if ck == nil || ck.Value != "tok-1" {
		t.Fatalf("expected session cookie with token, got %+v", ck)
	}
	if !ck.HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	stub := &stubIdentity{
		registerFn: func(_ context.Context, _ ports.RegisterInput) (*domain.User, string, error) {
			return nil, "", domain.ErrUserExists
		},
	}
	h := NewAuthHandler(service.NewSessionRegistry(stub, time.Hour, zerolog.Nop()), CookieSettings{})

	c, rec := authContext(http.MethodPost, "/api/auth/register",
		`{"name":"Bob","email":"bob@example.com","password":"secret1"}`)
	_ = h.Register(c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestAuthHandler_Register_ValidationMessages(t *testing.T) {
	stub := &stubIdentity{
		registerFn: func(_ context.Context, _ ports.RegisterInput) (*domain.User, string, error) {
			t.Fatalf("should not be called")
			return nil, "", nil
		},
	}
	h := NewAuthHandler(service.NewSessionRegistry(stub, time.Hour, zerolog.Nop()), CookieSettings{})

	c, rec := authContext(http.MethodPost, "/api/auth/register", `{"email":"not-an-email"}`)
	_ = h.Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var msgs []string
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("expected message list: %v", err)
	}
	if len(msgs) < 2 {
		t.Fatalf("expected messages for name, email and password, got %v", msgs)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubIdentity{
		loginFn: func(_ context.Context, creds ports.Credentials) (*domain.User, string, error) {
			if creds.Email != "alice@example.com" || creds.Password != "secret1" {
				t.Fatalf("unexpected creds: %+v", creds)
			}
			return &domain.User{ID: "u1", Name: "Alice", Email: creds.Email}, "tok-login", nil
		},
	}
	h := NewAuthHandler(service.NewSessionRegistry(stub, time.Hour, zerolog.Nop()), CookieSettings{})

	c, rec := authContext(http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ck := sessionCookie(t, rec)
	if ck == nil || ck.Value != "tok-login" {
		t.Fatalf("expected session cookie, got %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubIdentity{
		loginFn: func(_ context.Context, _ ports.Credentials) (*domain.User, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(service.NewSessionRegistry(stub, time.Hour, zerolog.Nop()), CookieSettings{})

	c, rec := authContext(http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong1"}`)
	_ = h.Login(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var msgs []string
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil || len(msgs) == 0 {
		t.Fatalf("expected error message list, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Verify_Authenticated(t *testing.T) {
	stub := &stubIdentity{
		verifyFn: func(_ context.Context, token string) (*domain.User, error) {
			if token != "tok-1" {
				t.Fatalf("unexpected token: %s", token)
			}
			return &domain.User{ID: "u1", Name: "Alice"}, nil
		},
	}
	registry := service.NewSessionRegistry(stub, time.Hour, zerolog.Nop())
	h := NewAuthHandler(registry, CookieSettings{})

	store := registry.For(context.Background(), "tok-1")
	c, rec := authContext(http.MethodGet, "/api/auth/verify", "")
	middleware.WithStore(c, store)

	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["is_authenticated"] != true {
		t.Fatalf("expected authenticated session: %+v", resp)
	}
}

func TestAuthHandler_Verify_DeadTokenAnswersAnonymous(t *testing.T) {
	stub := &stubIdentity{
		verifyFn: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	registry := service.NewSessionRegistry(stub, time.Hour, zerolog.Nop())
	h := NewAuthHandler(registry, CookieSettings{})

	store := registry.For(context.Background(), "dead-token")
	c, rec := authContext(http.MethodGet, "/api/auth/verify", "")
	middleware.WithStore(c, store)

	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("a dead token is not an error, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["is_authenticated"] != false {
		t.Fatalf("expected anonymous session: %+v", resp)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie cleared, got %+v", ck)
	}
}

func TestAuthHandler_Logout_ClearsCookieAndDropsStore(t *testing.T) {
	logoutCalls := 0
	stub := &stubIdentity{
		verifyFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: "u1"}, nil
		},
		logoutFn: func(_ context.Context, token string) error {
			logoutCalls++
			return nil
		},
	}
	registry := service.NewSessionRegistry(stub, time.Hour, zerolog.Nop())
	h := NewAuthHandler(registry, CookieSettings{})

	store := registry.For(context.Background(), "tok-1")
	store.Await(context.Background())

	c, rec := authContext(http.MethodPost, "/api/auth/logout", "")
	middleware.WithStore(c, store)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if logoutCalls != 1 {
		t.Fatalf("expected provider logout once, got %d", logoutCalls)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie cleared, got %+v", ck)
	}
}
