package ports

import (
	"context"

	"github.com/trueque/marketplace/internal/core/domain"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenStore tracks which issued session tokens are still live, so sign-out
// revokes server side instead of waiting for JWT expiry.
type TokenStore interface {
	Save(ctx context.Context, token, userID string) error
	Revoke(ctx context.Context, token string) error
	IsActive(ctx context.Context, token string) (bool, error)
}
