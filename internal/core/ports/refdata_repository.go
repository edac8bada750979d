package ports

import (
	"context"

	"github.com/trueque/marketplace/internal/core/domain"
)

// CategoryRepository serves the read-only category reference collections.
type CategoryRepository interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Subcategories(ctx context.Context) ([]domain.Subcategory, error)
}

// ProvinceRepository serves the province reference collections. Mutations
// exist for the authenticated admin surface only; the core treats the
// collections as read-only.
type ProvinceRepository interface {
	Provinces(ctx context.Context) ([]domain.Province, error)
	Municipalities(ctx context.Context) ([]domain.Municipality, error)
	CreateProvince(ctx context.Context, p *domain.Province) error
	UpdateProvince(ctx context.Context, p *domain.Province) error
	DeleteProvince(ctx context.Context, id string) error
	CreateMunicipality(ctx context.Context, m *domain.Municipality) error
	UpdateMunicipality(ctx context.Context, m *domain.Municipality) error
	DeleteMunicipality(ctx context.Context, id string) error
}
