package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trueque/marketplace/internal/core/domain"
)

const (
	listingsCollection  = "listings"
	favoritesCollection = "favorites"
)

type ListingRepository struct {
	coll *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{coll: db.Collection(listingsCollection)}
}

// Listing ids are service-generated UUIDs, so documents store them directly
// in _id and no ObjectID mapping is needed.

// FindAll returns every listing newest first. Filtering happens in the
// engine, not the query: the collection is small and the filter semantics
// (legacy name-valued rows, stale-id tolerance) live in one place.
func (r *ListingRepository) FindAll(ctx context.Context) ([]domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Listing
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return out, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings by owner: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Listing
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return out, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if _, err := r.coll.InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": listing.ID}, listing)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) IncrementLikes(ctx context.Context, id string, delta int) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"likes": delta}})
	if err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) CountByProvince(ctx context.Context) (map[string]int, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$province_id", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count listings by province: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]int)
	for cur.Next(ctx) {
		var row struct {
			ProvinceID string `bson:"_id"`
			Count      int    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode province count: %w", err)
		}
		out[row.ProvinceID] = row.Count
	}
	return out, cur.Err()
}

// FavoriteRepository stores one document per (user, listing) pair.
type FavoriteRepository struct {
	coll *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{coll: db.Collection(favoritesCollection)}
}

// EnsureIndexes creates the unique compound index Save relies on to map
// duplicate inserts to domain.ErrAlreadySaved.
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure favorite indexes: %w", err)
	}
	return nil
}

type favoriteDoc struct {
	UserID    string `bson:"user_id"`
	ListingID string `bson:"listing_id"`
	SavedAt   int64  `bson:"saved_at"`
}

func (r *FavoriteRepository) Save(ctx context.Context, userID, listingID string) error {
	// Duplicate detection depends on the compound index from EnsureIndexes.
	_, err := r.coll.InsertOne(ctx, favoriteDoc{
		UserID:    userID,
		ListingID: listingID,
		SavedAt:   time.Now().Unix(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadySaved
		}
		return fmt.Errorf("save favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *FavoriteRepository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc favoriteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite: %w", err)
		}
		out = append(out, doc.ListingID)
	}
	return out, cur.Err()
}

func (r *FavoriteRepository) IsSaved(ctx context.Context, userID, listingID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return n > 0, nil
}
