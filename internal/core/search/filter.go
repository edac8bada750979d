package search

import (
	"strings"

	"github.com/trueque/marketplace/internal/core/domain"
)

// Resolver resolves category/province ids to the display names listings are
// compared against. Implemented by the reference data store.
type Resolver interface {
	CategoryName(id string) (string, bool)
	ProvinceName(id string) (string, bool)
}

// Filter computes the visible subset of listings for an intent.
//
// Predicates apply conjunctively: the term matches case-insensitively as a
// substring of title, description, or owner name; category and province
// match by exact equality on the resolved name. An id that does not resolve
// is treated as an absent filter for that field, never as "match nothing".
// The result preserves the input order (stable, no re-sort).
func Filter(listings []domain.Listing, intent Intent, ref Resolver) []domain.Listing {
	if intent.Empty() {
		return listings
	}

	term := strings.ToLower(strings.TrimSpace(intent.Term))
	categoryName, filterCategory := resolveCategory(intent.CategoryID, ref)
	provinceName, filterProvince := resolveProvince(intent.ProvinceID, ref)

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if term != "" && !matchesTerm(l, term) {
			continue
		}
		if filterCategory && !matchesName(l.CategoryID, categoryName, ref.CategoryName) {
			continue
		}
		if filterProvince && !matchesName(l.ProvinceID, provinceName, ref.ProvinceName) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesTerm(l domain.Listing, term string) bool {
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.Description), term) ||
		strings.Contains(strings.ToLower(l.Owner.Name), term)
}

// matchesName compares the listing's stored reference value against the
// resolved filter name. The stored value is canonically an id; legacy rows
// carry the name itself, so when the id does not resolve the raw value is
// compared directly.
func matchesName(stored, want string, lookup func(string) (string, bool)) bool {
	if name, ok := lookup(stored); ok {
		return name == want
	}
	return stored == want
}

func resolveCategory(id string, ref Resolver) (string, bool) {
	if id == "" {
		return "", false
	}
	if name, ok := ref.CategoryName(id); ok {
		return name, true
	}
	// Stale or unknown id: ignore the field rather than exclude everything.
	return "", false
}

func resolveProvince(id string, ref Resolver) (string, bool) {
	if id == "" {
		return "", false
	}
	if name, ok := ref.ProvinceName(id); ok {
		return name, true
	}
	return "", false
}
