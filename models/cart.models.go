package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductSnapshot is the copy of a product kept on a cart line for display
type ProductSnapshot struct {
	Title      string   `bson:"title" json:"title"`
	Category   string   `bson:"category" json:"category"`
	PriceCents int64    `bson:"price_cents" json:"price_cents"`
	Images     []string `bson:"images" json:"images"`
}

// CartItem represents an item in the cart
type CartItem struct {
	ID        string             `bson:"id" json:"id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Product   ProductSnapshot    `bson:"product" json:"products"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// SnapshotOf copies the display fields of p
func SnapshotOf(p Product) ProductSnapshot {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return ProductSnapshot{
		Title:      p.Title,
		Category:   p.Category,
		PriceCents: p.PriceCents,
		Images:     images,
	}
}
