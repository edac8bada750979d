package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trueque/marketplace/internal/core/domain"
)

const (
	categoriesCollection     = "categories"
	subcategoriesCollection  = "subcategories"
	provincesCollection      = "provinces"
	municipalitiesCollection = "municipalities"
)

// CategoryRepository serves the read-only category collections. Ordering is
// by the "order" field the seeding script writes, so the slider and the
// most-searched tabs render in a stable, curated order.
type CategoryRepository struct {
	categories    *mongo.Collection
	subcategories *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{
		categories:    db.Collection(categoriesCollection),
		subcategories: db.Collection(subcategoriesCollection),
	}
}

func (r *CategoryRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := r.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) Subcategories(ctx context.Context) ([]domain.Subcategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := r.subcategories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find subcategories: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Subcategory
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}
	return out, nil
}

// ProvinceRepository serves the province collections plus the authenticated
// admin mutations.
type ProvinceRepository struct {
	provinces      *mongo.Collection
	municipalities *mongo.Collection
}

func NewProvinceRepository(db *mongo.Database) *ProvinceRepository {
	return &ProvinceRepository{
		provinces:      db.Collection(provincesCollection),
		municipalities: db.Collection(municipalitiesCollection),
	}
}

func (r *ProvinceRepository) Provinces(ctx context.Context) ([]domain.Province, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.provinces.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find provinces: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Province
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode provinces: %w", err)
	}
	return out, nil
}

func (r *ProvinceRepository) Municipalities(ctx context.Context) ([]domain.Municipality, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.municipalities.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find municipalities: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Municipality
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode municipalities: %w", err)
	}
	return out, nil
}

func (r *ProvinceRepository) CreateProvince(ctx context.Context, p *domain.Province) error {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.provinces.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert province: %w", err)
	}
	return nil
}

func (r *ProvinceRepository) UpdateProvince(ctx context.Context, p *domain.Province) error {
	res, err := r.provinces.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("update province: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProvinceNotFound
	}
	return nil
}

func (r *ProvinceRepository) DeleteProvince(ctx context.Context, id string) error {
	res, err := r.provinces.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete province: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProvinceNotFound
	}
	return nil
}

func (r *ProvinceRepository) CreateMunicipality(ctx context.Context, m *domain.Municipality) error {
	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.municipalities.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert municipality: %w", err)
	}
	return nil
}

func (r *ProvinceRepository) UpdateMunicipality(ctx context.Context, m *domain.Municipality) error {
	res, err := r.municipalities.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("update municipality: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMunicipalityNotFound
	}
	return nil
}

func (r *ProvinceRepository) DeleteMunicipality(ctx context.Context, id string) error {
	res, err := r.municipalities.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete municipality: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMunicipalityNotFound
	}
	return nil
}
