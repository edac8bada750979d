package search

import (
	"reflect"
	"testing"

	"github.com/trueque/marketplace/internal/core/domain"
)

type stubResolver struct {
	categories map[string]string
	provinces  map[string]string
}

func (r *stubResolver) CategoryName(id string) (string, bool) {
	name, ok := r.categories[id]
	return name, ok
}

func (r *stubResolver) ProvinceName(id string) (string, bool) {
	name, ok := r.provinces[id]
	return name, ok
}

func testResolver() *stubResolver {
	return &stubResolver{
		categories: map[string]string{
			"cat_legal": "Legal",
			"cat_edu":   "Educación",
		},
		provinces: map[string]string{
			"prov_mad": "Madrid",
			"prov_bcn": "Barcelona",
		},
	}
}

func testListings() []domain.Listing {
	return []domain.Listing{
		{
			ID:          "1",
			Title:       "Abogado laboralista",
			Description: "Asesoría legal completa, busco fontanería a cambio",
			CategoryID:  "cat_legal",
			ProvinceID:  "prov_mad",
			Owner:       domain.OwnerSummary{Name: "Carlos Martínez"},
		},
		{
			ID:          "2",
			Title:       "Clases de inglés",
			Description: "Profesora nativa, busco reformas",
			CategoryID:  "cat_edu",
			ProvinceID:  "prov_bcn",
			Owner:       domain.OwnerSummary{Name: "Ana López"},
		},
	}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestFilter_EmptyIntentReturnsAll(t *testing.T) {
	listings := testListings()
	got := Filter(listings, Intent{}, testResolver())
	if !reflect.DeepEqual(ids(got), ids(listings)) {
		t.Fatalf("empty intent changed result: %v", ids(got))
	}
}

func TestFilter_ByCategory(t *testing.T) {
	got := Filter(testListings(), Intent{CategoryID: "cat_legal"}, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("expected [1], got %v", ids(got))
	}
}

func TestFilter_ByTermCaseInsensitiveSubstring(t *testing.T) {
	got := Filter(testListings(), Intent{Term: "INGL"}, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"2"}) {
		t.Fatalf("expected [2], got %v", ids(got))
	}
}

func TestFilter_ByOwnerName(t *testing.T) {
	got := Filter(testListings(), Intent{Term: "carlos"}, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("expected [1], got %v", ids(got))
	}
}

func TestFilter_Conjunctive(t *testing.T) {
	listings := testListings()
	intent := Intent{Term: "abogado", CategoryID: "cat_legal", ProvinceID: "prov_mad"}
	got := Filter(listings, intent, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("expected [1], got %v", ids(got))
	}

	// Same term, wrong province: conjunction must exclude it.
	intent.ProvinceID = "prov_bcn"
	if got := Filter(listings, intent, testResolver()); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", ids(got))
	}
}

func TestFilter_StaleIDIsNoOp(t *testing.T) {
	listings := testListings()
	withStale := Filter(listings, Intent{Term: "clases", CategoryID: "cat_gone"}, testResolver())
	without := Filter(listings, Intent{Term: "clases"}, testResolver())
	if !reflect.DeepEqual(ids(withStale), ids(without)) {
		t.Fatalf("stale category id not ignored: %v vs %v", ids(withStale), ids(without))
	}
}

func TestFilter_LegacyNameValuedRows(t *testing.T) {
	// Rows imported before ids were canonical store the display name itself.
	listings := []domain.Listing{
		{ID: "legacy", Title: "Fontanero", CategoryID: "Legal", ProvinceID: "Madrid"},
	}
	got := Filter(listings, Intent{CategoryID: "cat_legal"}, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"legacy"}) {
		t.Fatalf("legacy name row not matched: %v", ids(got))
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	listings := []domain.Listing{
		{ID: "a", Title: "yoga en grupo", CategoryID: "cat_edu", ProvinceID: "prov_mad"},
		{ID: "b", Title: "clases de piano", CategoryID: "cat_edu", ProvinceID: "prov_mad"},
		{ID: "c", Title: "yoga individual", CategoryID: "cat_edu", ProvinceID: "prov_mad"},
	}
	got := Filter(listings, Intent{Term: "yoga"}, testResolver())
	if !reflect.DeepEqual(ids(got), []string{"a", "c"}) {
		t.Fatalf("order not preserved: %v", ids(got))
	}
}

func TestFilter_EmptyCollection(t *testing.T) {
	got := Filter(nil, Intent{Term: "x"}, testResolver())
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
}

func TestSession_UnappliedShowsEverything(t *testing.T) {
	listings := testListings()
	s := NewSession()
	got := s.Visible(listings, testResolver())
	if !reflect.DeepEqual(ids(got), ids(listings)) {
		t.Fatalf("unapplied session filtered: %v", ids(got))
	}
}

func TestSession_ApplyEmptyIntentIsNoOp(t *testing.T) {
	s := NewSession()
	s.Apply(Intent{})
	if s.Applied() {
		t.Fatalf("empty intent must not mark search as applied")
	}
}

func TestSession_RemoveSingleFilterKeepsOthers(t *testing.T) {
	s := NewSession()
	s.Apply(Intent{Term: "x", CategoryID: "cat_legal", ProvinceID: "prov_mad"})

	s.RemoveFilter(KindCategory)
	want := Intent{Term: "x", ProvinceID: "prov_mad"}
	if s.Intent() != want {
		t.Fatalf("unexpected intent after removal: %+v", s.Intent())
	}
	if !s.Applied() {
		t.Fatalf("applied flag must survive partial removal")
	}
}

func TestSession_RemovingAllFiltersResetsApplied(t *testing.T) {
	listings := testListings()
	s := NewSession()
	s.Apply(Intent{Term: "abogado", CategoryID: "cat_legal", ProvinceID: "prov_mad"})

	s.RemoveFilter(KindTerm)
	s.RemoveFilter(KindCategory)
	s.RemoveFilter(KindProvince)

	if s.Applied() {
		t.Fatalf("applied flag must reset when the last filter is removed")
	}
	got := s.Visible(listings, testResolver())
	if !reflect.DeepEqual(ids(got), ids(listings)) {
		t.Fatalf("expected full collection after removing all filters, got %v", ids(got))
	}
}

func TestSession_ResumeNormalizesEmptyIntent(t *testing.T) {
	s := Resume(Intent{}, true)
	if s.Applied() {
		t.Fatalf("resumed empty intent must not be applied")
	}
}

func TestSession_Reset(t *testing.T) {
	s := NewSession()
	s.Apply(Intent{Term: "x"})
	s.Reset()
	if s.Applied() || !s.Intent().Empty() {
		t.Fatalf("reset left state behind: %+v applied=%v", s.Intent(), s.Applied())
	}
}
