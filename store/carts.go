package store

import (
	"context"
	"errors"
	"time"

	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoadCart returns the user's cart lines; a user without a cart has none
func (s *Store) LoadCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var cart models.Cart
	err := s.carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart.Items, nil
}

// SaveCart replaces the user's cart lines, creating the cart if needed
func (s *Store) SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if items == nil {
		items = []models.CartItem{}
	}
	update := bson.M{"$set": bson.M{"items": items, "updated_at": time.Now().UTC()}}
	_, err := s.carts.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	return mapError(err)
}
