package ports

import (
	"context"

	"github.com/trueque/marketplace/internal/core/domain"
)

// CreateListingInput carries all data needed to publish a new listing.
type CreateListingInput struct {
	Title         string
	Description   string
	CategoryID    string
	SubcategoryID string
	ProvinceID    string
	Images        []string
	ContactEmail  string
	ContactPhone  string
	OwnerID       string
}

// UpdateListingInput carries an owner edit. Category and province stay
// mutable only through this path.
type UpdateListingInput struct {
	ListingID     string
	OwnerID       string
	Title         string
	Description   string
	CategoryID    string
	SubcategoryID string
	ProvinceID    string
	Images        []string
	ContactEmail  string
	ContactPhone  string
}

// ProvinceRank is one row of the most-searched ranking: listings published
// there plus how often users searched for it this period.
type ProvinceRank struct {
	ProvinceID string
	Name       string
	Listings   int
	Searches   int64
}

// CategoryGroup is a category with its ordered subcategories, feeding the
// most-searched category tab.
type CategoryGroup struct {
	Category      domain.Category
	Subcategories []domain.Subcategory
}

// ListingService defines the use-case operations around listings.
type ListingService interface {
	List(ctx context.Context) ([]domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Publish(ctx context.Context, input CreateListingInput) (*domain.Listing, error)
	Edit(ctx context.Context, input UpdateListingInput) (*domain.Listing, error)
	Unpublish(ctx context.Context, listingID, ownerID string) error
	SaveFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	Favorites(ctx context.Context, userID string) ([]domain.Listing, error)
	TopProvinces(ctx context.Context, limit int) ([]ProvinceRank, error)
	CategoryGroups(limit int) []CategoryGroup
}
