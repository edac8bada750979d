package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
)

// SearchCounter records search frequency per province, feeding the
// most-searched ranking. Backed by Redis in production.
type SearchCounter interface {
	Record(ctx context.Context, provinceID string) error
	Counts(ctx context.Context) (map[string]int64, error)
}

// ListingService implements the listing use cases: publish, edit, browse,
// favorites, and the most-searched ranking.
type ListingService struct {
	listings  ports.ListingRepository
	favorites ports.FavoriteRepository
	users     ports.UserRepository
	refdata   *RefDataStore
	searches  SearchCounter
	logger    zerolog.Logger
}

func NewListingService(
	listings ports.ListingRepository,
	favorites ports.FavoriteRepository,
	users ports.UserRepository,
	refdata *RefDataStore,
	searches SearchCounter,
	logger zerolog.Logger,
) *ListingService {
	return &ListingService{
		listings:  listings,
		favorites: favorites,
		users:     users,
		refdata:   refdata,
		searches:  searches,
		logger:    logger,
	}
}

func (s *ListingService) List(ctx context.Context) ([]domain.Listing, error) {
	return s.listings.FindAll(ctx)
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.listings.FindByID(ctx, id)
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return s.listings.FindByOwner(ctx, ownerID)
}

// Publish creates a listing owned by the calling user. Category and
// province are stored by id; the owner summary is denormalized at creation.
func (s *ListingService) Publish(ctx context.Context, input ports.CreateListingInput) (*domain.Listing, error) {
	owner, err := s.users.FindByID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:            uuid.NewString(),
		Title:         input.Title,
		Description:   input.Description,
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		ProvinceID:    input.ProvinceID,
		OwnerID:       owner.ID,
		Owner:         owner.Summary(),
		Images:        input.Images,
		Contact:       domain.Contact{Email: input.ContactEmail, Phone: input.ContactPhone},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish listing")
		return nil, err
	}

	s.logger.Info().Str("listing_id", listing.ID).Str("owner_id", owner.ID).Msg("listing published")
	return listing, nil
}

// Edit applies an owner edit. Category and location are mutable only here.
func (s *ListingService) Edit(ctx context.Context, input ports.UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != input.OwnerID {
		return nil, domain.ErrNotOwner
	}

	listing.Title = input.Title
	listing.Description = input.Description
	listing.CategoryID = input.CategoryID
	listing.SubcategoryID = input.SubcategoryID
	listing.ProvinceID = input.ProvinceID
	listing.Images = input.Images
	listing.Contact = domain.Contact{Email: input.ContactEmail, Phone: input.ContactPhone}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) Unpublish(ctx context.Context, listingID, ownerID string) error {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return domain.ErrNotOwner
	}
	return s.listings.Delete(ctx, listingID)
}

func (s *ListingService) SaveFavorite(ctx context.Context, userID, listingID string) error {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return err
	}
	if err := s.favorites.Save(ctx, userID, listingID); err != nil {
		return err
	}
	if err := s.listings.IncrementLikes(ctx, listingID, 1); err != nil {
		s.logger.Warn().Err(err).Str("listing_id", listingID).Msg("like counter not incremented")
	}
	return nil
}

func (s *ListingService) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	if err := s.favorites.Remove(ctx, userID, listingID); err != nil {
		return err
	}
	if err := s.listings.IncrementLikes(ctx, listingID, -1); err != nil {
		s.logger.Warn().Err(err).Str("listing_id", listingID).Msg("like counter not decremented")
	}
	return nil
}

// Favorites returns the user's saved listings, skipping ids whose listing
// has since been unpublished.
func (s *ListingService) Favorites(ctx context.Context, userID string) ([]domain.Listing, error) {
	ids, err := s.favorites.ListingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		listing, err := s.listings.FindByID(ctx, id)
		if err == domain.ErrListingNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *listing)
	}
	return out, nil
}

// TopProvinces ranks provinces by published listings, breaking ties with
// recorded search frequency. Counter failures degrade to listing counts only.
func (s *ListingService) TopProvinces(ctx context.Context, limit int) ([]ports.ProvinceRank, error) {
	counts, err := s.listings.CountByProvince(ctx)
	if err != nil {
		return nil, err
	}

	searches, err := s.searches.Counts(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("search counters unavailable")
		searches = nil
	}

	provinces := s.refdata.Provinces().Items
	ranks := make([]ports.ProvinceRank, 0, len(provinces))
	for _, p := range provinces {
		ranks = append(ranks, ports.ProvinceRank{
			ProvinceID: p.ID,
			Name:       p.Name,
			Listings:   counts[p.ID],
			Searches:   searches[p.ID],
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Listings != ranks[j].Listings {
			return ranks[i].Listings > ranks[j].Listings
		}
		return ranks[i].Searches > ranks[j].Searches
	})

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

// CategoryGroups returns each category with its subcategories, preserving
// load order, for the most-searched category tab.
func (s *ListingService) CategoryGroups(limit int) []ports.CategoryGroup {
	categories := s.refdata.Categories().Items
	groups := make([]ports.CategoryGroup, 0, len(categories))
	for _, c := range categories {
		subs := s.refdata.SubcategoriesOf(c.ID)
		if len(subs) == 0 {
			continue
		}
		groups = append(groups, ports.CategoryGroup{Category: c, Subcategories: subs})
	}
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}
