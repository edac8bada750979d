package domain

import (
	"errors"
	"time"
)

var ErrListingNotFound = errors.New("listing not found")
var ErrNotOwner = errors.New("listing does not belong to user")
var ErrAlreadySaved = errors.New("listing already saved")

// OwnerSummary is the public slice of the owning user shown on a listing card.
type OwnerSummary struct {
	Name    string  `json:"name" bson:"name"`
	Rating  float64 `json:"rating" bson:"rating"`
	Reviews int     `json:"reviews" bson:"reviews"`
}

// Contact holds the channels an interested user can reach the owner through.
type Contact struct {
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// Listing is a published service-exchange offer. Category and province are
// stored by id; names are resolved at render/comparison time only. Legacy
// rows imported from the mock era may still carry a display name in these
// fields, which the reference-data lookups tolerate.
type Listing struct {
	ID            string       `json:"id" bson:"_id,omitempty"`
	Title         string       `json:"title" bson:"title"`
	Description   string       `json:"description" bson:"description"`
	CategoryID    string       `json:"category_id" bson:"category_id"`
	SubcategoryID string       `json:"subcategory_id,omitempty" bson:"subcategory_id,omitempty"`
	ProvinceID    string       `json:"province_id" bson:"province_id"`
	OwnerID       string       `json:"owner_id" bson:"owner_id"`
	Owner         OwnerSummary `json:"owner" bson:"owner"`
	Likes         int          `json:"likes" bson:"likes"`
	Images        []string     `json:"images" bson:"images"`
	Contact       Contact      `json:"contact" bson:"contact"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" bson:"updated_at"`
}
