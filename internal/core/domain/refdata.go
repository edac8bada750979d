package domain

import "errors"

var ErrCategoryNotFound = errors.New("category not found")
var ErrSubcategoryNotFound = errors.New("subcategory not found")
var ErrProvinceNotFound = errors.New("province not found")
var ErrMunicipalityNotFound = errors.New("municipality not found")

// Category is a read-only lookup record loaded once per process.
type Category struct {
	ID    string `json:"id" bson:"_id,omitempty"`
	Name  string `json:"name" bson:"name"`
	Slug  string `json:"slug" bson:"slug"`
	Icon  string `json:"icon" bson:"icon"`
	Color string `json:"color" bson:"color"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	Name       string `json:"name" bson:"name"`
	CategoryID string `json:"category_id" bson:"category_id"`
}

// Province is a read-mostly location record. Code is the two-digit INE code.
type Province struct {
	ID   string `json:"id" bson:"_id,omitempty"`
	Name string `json:"name" bson:"name"`
	Code string `json:"code,omitempty" bson:"code,omitempty"`
	Slug string `json:"slug,omitempty" bson:"slug,omitempty"`
}

// Municipality belongs to exactly one province.
type Municipality struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	Name       string `json:"name" bson:"name"`
	ProvinceID string `json:"province_id" bson:"province_id"`
}

// CollectionState tags the lifecycle of a fetched reference collection, so
// every consumer distinguishes loading, failure, and genuine emptiness the
// same way instead of re-deriving it from loading flags and lengths.
type CollectionState string

const (
	CollectionLoading CollectionState = "loading"
	CollectionLoaded  CollectionState = "loaded"
	CollectionFailed  CollectionState = "failed"
	CollectionEmpty   CollectionState = "empty"
)
