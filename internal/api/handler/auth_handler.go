package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trueque/marketplace/internal/api/metrics"
	"github.com/trueque/marketplace/internal/api/middleware"
	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
	"github.com/trueque/marketplace/internal/core/service"
)

// AuthHandler exposes the session lifecycle over HTTP. Each sign-in/sign-up
// request runs through a fresh SessionStore so the transitions and error
// bookkeeping match what every other consumer of the store observes.
type AuthHandler struct {
	registry *service.SessionRegistry
	cookie   CookieSettings
}

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Secure bool
	TTL    time.Duration
}

func NewAuthHandler(registry *service.SessionRegistry, cookie CookieSettings) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = 24 * time.Hour
	}
	return &AuthHandler{registry: registry, cookie: cookie}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User            *domain.User `json:"user,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
}

// Register creates a new account and signs the session in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {array}   string
// @Failure      409   {array}   string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failed").Inc()
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	store := h.registry.Fresh(c.Request().Context())
	ok := store.SignUp(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	snap := store.Snapshot()

	if !ok {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failed").Inc()
		return c.JSON(registerFailureStatus(snap.Errors), snap.Errors)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "ok").Inc()
	h.writeCookie(c, store.Token())
	return c.JSON(http.StatusCreated, sessionResponse{User: snap.User, IsAuthenticated: true})
}

// Login authenticates an existing account.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {array}   string
// @Failure      401   {array}   string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, []string{"solicitud inválida"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signin", "failed").Inc()
		return c.JSON(http.StatusBadRequest, validationMessages(err))
	}

	store := h.registry.Fresh(c.Request().Context())
	ok := store.SignIn(c.Request().Context(), ports.Credentials{Email: req.Email, Password: req.Password})
	snap := store.Snapshot()

	if !ok {
		metrics.AuthAttemptsTotal.WithLabelValues("signin", "failed").Inc()
		return c.JSON(http.StatusUnauthorized, snap.Errors)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signin", "ok").Inc()
	h.writeCookie(c, store.Token())
	return c.JSON(http.StatusOK, sessionResponse{User: snap.User, IsAuthenticated: true})
}

// Logout signs the session out and clears the cookie. Always succeeds from
// the client's point of view.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store := middleware.StoreFrom(c)
	if store != nil {
		token := store.Token()
		store.SignOut(c.Request().Context())
		h.registry.Drop(token)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signout", "ok").Inc()
	h.clearCookie(c)
	return c.JSON(http.StatusOK, sessionResponse{IsAuthenticated: false})
}

// Verify resolves the persisted token into the current session snapshot.
// This is the call the SPA makes on every page load; an absent or dead
// token answers 200 with an anonymous session, never an error.
//
// @Summary      Verify the persisted session token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	store := middleware.StoreFrom(c)
	if store == nil {
		return c.JSON(http.StatusOK, sessionResponse{IsAuthenticated: false})
	}

	snap := store.Await(c.Request().Context())
	if snap.Authenticated {
		metrics.AuthAttemptsTotal.WithLabelValues("verify", "ok").Inc()
	} else {
		metrics.AuthAttemptsTotal.WithLabelValues("verify", "failed").Inc()
		h.clearCookie(c)
	}
	return c.JSON(http.StatusOK, sessionResponse{User: snap.User, IsAuthenticated: snap.Authenticated})
}

func (h *AuthHandler) writeCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// registerFailureStatus distinguishes "email taken" from plain validation.
func registerFailureStatus(errs []string) int {
	for _, e := range errs {
		if e == domain.ErrUserExists.Error() {
			return http.StatusConflict
		}
	}
	return http.StatusBadRequest
}
