package store

import (
	"context"
	"fmt"
	"time"

	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOrder inserts an order together with its lines. The lines are
// embedded, so the single insert is atomic.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", mapError(err))
	}
	return nil
}

// ListOrders returns the user's orders, newest first
func (s *Store) ListOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
