package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// OrderItem is a priced line of an order
type OrderItem struct {
	ProductID  primitive.ObjectID `bson:"product_id" json:"product_id"`
	Title      string             `bson:"title" json:"title"`
	PriceCents int64              `bson:"price_cents" json:"price_cents"`
	Quantity   int                `bson:"quantity" json:"quantity"`
}

// Order represents a user's order
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status     string             `bson:"status" json:"status"`
	TotalCents int64              `bson:"total_cents" json:"total_cents"`
	Items      []OrderItem        `bson:"items" json:"order_items"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
