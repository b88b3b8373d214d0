package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories lists every category a listing may be filed under
var Categories = []string{
	"Electronics",
	"Fashion & Apparel",
	"Home & Living",
	"Books & Media",
	"Sports & Outdoors",
	"Toys & Games",
	"Automotive",
	"Collectibles",
	"Other",
}

// IsCategory reports whether name is one of Categories
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Product represents a second-hand listing
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	PriceCents  int64              `bson:"price_cents" json:"price_cents"`
	Images      []string           `bson:"images" json:"images"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	Seller      *SellerSummary     `bson:"seller,omitempty" json:"profiles,omitempty"`
}
