package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the auth identity behind a profile
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Profile is the public face of a user. It shares the user's ID.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Username  string             `bson:"username" json:"username"`
	AvatarURL *string            `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// SellerSummary is the slice of a profile embedded in product listings
type SellerSummary struct {
	Username  string  `bson:"username" json:"username"`
	AvatarURL *string `bson:"avatar_url,omitempty" json:"avatar_url"`
}
