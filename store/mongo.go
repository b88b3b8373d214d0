// Package store keeps users, profiles, listings, carts and orders in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store wraps the collections of one database
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *mongo.Collection
	profiles *mongo.Collection
	products *mongo.Collection
	carts    *mongo.Collection
	orders   *mongo.Collection
	timeout  time.Duration
}

// ConnectDB dials MongoDB and checks the connection with a ping
func ConnectDB(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// New creates a Store on database name. Every call is bounded by timeout.
func New(client *mongo.Client, name string, timeout time.Duration) *Store {
	db := client.Database(name)
	return &Store{
		client:   client,
		db:       db,
		users:    db.Collection("users"),
		profiles: db.Collection("profiles"),
		products: db.Collection("products"),
		carts:    db.Collection("carts"),
		orders:   db.Collection("orders"),
		timeout:  timeout,
	}
}

// Ping reports whether the database answers
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the queries rely on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 4*s.timeout)
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		s.profiles: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		s.products: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price_cents", Value: 1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		s.carts: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		s.orders: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// mapError converts driver errors into the package sentinels
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
