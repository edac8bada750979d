// Package search implements the listing filter engine: the single place
// where search intents produced by any surface (hero bar, category slider,
// most-searched tabs, map picker) are normalized, carried across a
// navigation boundary, and applied against the listing collection.
package search

// Intent is the three-field filter specification. Unset fields are empty
// strings. An Intent lives for exactly one navigation; it is never persisted.
type Intent struct {
	Term       string `json:"search_term"`
	CategoryID string `json:"category_id"`
	ProvinceID string `json:"province_id"`
}

// Empty reports whether no field is set. An empty intent is equivalent to
// "no filter" and short-circuits to the unfiltered listing set.
func (i Intent) Empty() bool {
	return i.Term == "" && i.CategoryID == "" && i.ProvinceID == ""
}

// FilterKind names one removable field of an intent.
type FilterKind string

const (
	KindTerm     FilterKind = "search"
	KindCategory FilterKind = "category"
	KindProvince FilterKind = "location"
)

// Remove returns a copy of the intent with exactly one field cleared.
// Unknown kinds leave the intent unchanged.
func (i Intent) Remove(kind FilterKind) Intent {
	switch kind {
	case KindTerm:
		i.Term = ""
	case KindCategory:
		i.CategoryID = ""
	case KindProvince:
		i.ProvinceID = ""
	}
	return i
}

// Producer helpers: every search-initiating surface builds its intent
// through one of these, so the shape stays uniform.

// FromSearchBar normalizes the hero/landing search bar submission.
func FromSearchBar(term, categoryID, provinceID string) Intent {
	return Intent{Term: term, CategoryID: categoryID, ProvinceID: provinceID}
}

// FromCategoryTap builds the intent for a category-slider tap.
func FromCategoryTap(categoryID string) Intent {
	return Intent{CategoryID: categoryID}
}

// FromProvinceTap builds the intent for a most-searched province click or a
// map-picker confirmation.
func FromProvinceTap(provinceID string) Intent {
	return Intent{ProvinceID: provinceID}
}

// FromSubcategoryTap builds the intent for a most-searched subcategory
// click: the parent category filters, the subcategory name becomes the term.
func FromSubcategoryTap(categoryID, subcategoryName string) Intent {
	return Intent{Term: subcategoryName, CategoryID: categoryID}
}
