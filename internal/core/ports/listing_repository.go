package ports

import (
	"context"

	"github.com/trueque/marketplace/internal/core/domain"
)

// ListingRepository defines listing persistence. FindAll returns listings in
// publication order, newest first; the filter engine relies on the
// repository order being stable.
type ListingRepository interface {
	FindAll(ctx context.Context) ([]domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Create(ctx context.Context, listing *domain.Listing) error
	Update(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string, delta int) error
	CountByProvince(ctx context.Context) (map[string]int, error)
}

// FavoriteRepository persists the per-user saved-listings relation.
type FavoriteRepository interface {
	Save(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	ListingIDs(ctx context.Context, userID string) ([]string, error)
	IsSaved(ctx context.Context, userID, listingID string) (bool, error)
}
