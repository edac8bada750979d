package ports

import (
	"context"

	"github.com/trueque/marketplace/internal/core/domain"
)

// RegisterInput carries a sign-up submission.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Credentials carries a sign-in submission.
type Credentials struct {
	Email    string
	Password string
}

// IdentityProvider is the boundary the session store talks to: it issues,
// verifies, and revokes credentials but holds no client-visible state.
type IdentityProvider interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, creds Credentials) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*domain.User, error)
}
