package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/api/metrics"
	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
)

const (
	refFetchTimeout  = 5 * time.Second
	refFetchAttempts = 3
	refFetchBackoff  = 500 * time.Millisecond
)

// Collection is one reference collection plus its lifecycle tag. Items hold
// the last successful load; a failure records the message without discarding
// them.
type Collection[T any] struct {
	State domain.CollectionState
	Items []T
	Err   string
}

// RefDataStore loads the category/province lookup collections once per
// process and answers id→name resolution for the filter engine. Each
// collection is fetched at most once concurrently; fetches retry with
// backoff and a per-attempt timeout, and results arriving after Close are
// discarded.
type RefDataStore struct {
	mu             sync.Mutex
	categories     Collection[domain.Category]
	subcategories  Collection[domain.Subcategory]
	provinces      Collection[domain.Province]
	municipalities Collection[domain.Municipality]
	inflight       map[string]bool
	closed         bool

	catRepo  ports.CategoryRepository
	provRepo ports.ProvinceRepository
	logger   zerolog.Logger
}

func NewRefDataStore(catRepo ports.CategoryRepository, provRepo ports.ProvinceRepository, logger zerolog.Logger) *RefDataStore {
	return &RefDataStore{
		categories:     Collection[domain.Category]{State: domain.CollectionLoading},
		subcategories:  Collection[domain.Subcategory]{State: domain.CollectionLoading},
		provinces:      Collection[domain.Province]{State: domain.CollectionLoading},
		municipalities: Collection[domain.Municipality]{State: domain.CollectionLoading},
		inflight:       make(map[string]bool),
		catRepo:        catRepo,
		provRepo:       provRepo,
		logger:         logger,
	}
}

// Load fetches all four collections and returns when every fetch settled.
func (s *RefDataStore) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); s.LoadCategories(ctx) }()
	go func() { defer wg.Done(); s.LoadSubcategories(ctx) }()
	go func() { defer wg.Done(); s.LoadProvinces(ctx) }()
	go func() { defer wg.Done(); s.LoadMunicipalities(ctx) }()
	wg.Wait()
}

func (s *RefDataStore) LoadCategories(ctx context.Context) {
	items, err := fetchCollection(ctx, s, "categories", s.catRepo.Categories)
	s.store(err, func() { s.categories = settled(s.categories, items, err, "no se pudieron cargar las categorías") })
}

func (s *RefDataStore) LoadSubcategories(ctx context.Context) {
	items, err := fetchCollection(ctx, s, "subcategories", s.catRepo.Subcategories)
	s.store(err, func() { s.subcategories = settled(s.subcategories, items, err, "no se pudieron cargar las subcategorías") })
}

func (s *RefDataStore) LoadProvinces(ctx context.Context) {
	items, err := fetchCollection(ctx, s, "provinces", s.provRepo.Provinces)
	s.store(err, func() { s.provinces = settled(s.provinces, items, err, "no se pudieron cargar las provincias") })
}

func (s *RefDataStore) LoadMunicipalities(ctx context.Context) {
	items, err := fetchCollection(ctx, s, "municipalities", s.provRepo.Municipalities)
	s.store(err, func() { s.municipalities = settled(s.municipalities, items, err, "no se pudieron cargar los municipios") })
}

// Close marks the store torn down; any fetch still in flight is discarded
// when it completes.
func (s *RefDataStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Categories returns the category collection with its lifecycle tag.
func (s *RefDataStore) Categories() Collection[domain.Category] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories
}

func (s *RefDataStore) Subcategories() Collection[domain.Subcategory] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subcategories
}

func (s *RefDataStore) Provinces() Collection[domain.Province] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provinces
}

func (s *RefDataStore) Municipalities() Collection[domain.Municipality] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.municipalities
}

// CategoryByID resolves a category id. Pure lookup over loaded data.
func (s *RefDataStore) CategoryByID(id string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories.Items {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *RefDataStore) CategoryBySlug(slug string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories.Items {
		if c.Slug == slug {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *RefDataStore) ProvinceByID(id string) (domain.Province, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.provinces.Items {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Province{}, false
}

func (s *RefDataStore) ProvinceByCode(code string) (domain.Province, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.provinces.Items {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Province{}, false
}

func (s *RefDataStore) SubcategoryByID(id string) (domain.Subcategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.subcategories.Items {
		if sc.ID == id {
			return sc, true
		}
	}
	return domain.Subcategory{}, false
}

func (s *RefDataStore) MunicipalityByID(id string) (domain.Municipality, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.municipalities.Items {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Municipality{}, false
}

// SubcategoriesOf returns the subcategories of one category, in load order.
func (s *RefDataStore) SubcategoriesOf(categoryID string) []domain.Subcategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Subcategory
	for _, sc := range s.subcategories.Items {
		if sc.CategoryID == categoryID {
			out = append(out, sc)
		}
	}
	return out
}

func (s *RefDataStore) MunicipalitiesOf(provinceID string) []domain.Municipality {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Municipality
	for _, m := range s.municipalities.Items {
		if m.ProvinceID == provinceID {
			out = append(out, m)
		}
	}
	return out
}

// CategoryName implements search.Resolver.
func (s *RefDataStore) CategoryName(id string) (string, bool) {
	c, ok := s.CategoryByID(id)
	return c.Name, ok
}

// ProvinceName implements search.Resolver.
func (s *RefDataStore) ProvinceName(id string) (string, bool) {
	p, ok := s.ProvinceByID(id)
	return p.Name, ok
}

// fetchCollection runs one guarded fetch with retry. It returns a nil slice
// and the last error when every attempt failed, and (nil, nil) when another
// fetch for the same collection was already in flight.
func fetchCollection[T any](ctx context.Context, s *RefDataStore, name string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	s.mu.Lock()
	if s.closed || s.inflight[name] {
		s.mu.Unlock()
		return nil, errSkipped
	}
	s.inflight[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, name)
		s.mu.Unlock()
	}()

	var lastErr error
	for attempt := 0; attempt < refFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(refFetchBackoff << (attempt - 1)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, refFetchTimeout)
		items, err := fetch(attemptCtx)
		cancel()
		if err == nil {
			metrics.RefDataFetchTotal.WithLabelValues(name, "ok").Inc()
			return items, nil
		}
		lastErr = err
		s.logger.Warn().Err(err).Str("collection", name).Int("attempt", attempt+1).Msg("reference data fetch failed")
	}
	metrics.RefDataFetchTotal.WithLabelValues(name, "failed").Inc()
	return nil, lastErr
}

// store applies an update unless the fetch was skipped or the store closed.
func (s *RefDataStore) store(err error, apply func()) {
	if err == errSkipped {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	apply()
}

// settled computes the next collection value after a fetch. Failures keep
// the previous items and record msg; an empty successful load is tagged
// Empty so views need no length checks.
func settled[T any](prev Collection[T], items []T, err error, msg string) Collection[T] {
	if err != nil {
		prev.State = domain.CollectionFailed
		prev.Err = msg
		return prev
	}
	if len(items) == 0 {
		return Collection[T]{State: domain.CollectionEmpty}
	}
	return Collection[T]{State: domain.CollectionLoaded, Items: items}
}

var errSkipped = &skippedError{}

type skippedError struct{}

func (*skippedError) Error() string { return "fetch already in flight" }
