package store

import (
	"context"
	"fmt"
	"time"

	"ecofinds/catalog"
	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductUpdate holds the fields an owner may change; nil means unchanged
type ProductUpdate struct {
	Title       *string
	Description *string
	Category    *string
	PriceCents  *int64
	Images      *[]string
	IsActive    *bool
}

func (u ProductUpdate) set() bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.PriceCents != nil {
		set["price_cents"] = *u.PriceCents
	}
	if u.Images != nil {
		set["images"] = *u.Images
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}
	return set
}

func (s *Store) aggregateProducts(ctx context.Context, pipeline mongo.Pipeline) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// QueryProducts runs a feed query; see catalog.BuildPipeline
func (s *Store) QueryProducts(ctx context.Context, q catalog.Query) ([]models.Product, error) {
	products, err := s.aggregateProducts(ctx, catalog.BuildPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// FindProduct returns a listing, active or not, with its seller embedded
func (s *Store) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
	}, catalog.SellerStages()...)

	products, err := s.aggregateProducts(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

// FindProductsByIDs returns the listings that exist among ids
func (s *Store) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	found := make(map[primitive.ObjectID]models.Product, len(ids))
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		found[product.ID] = product
	}
	return found, cursor.Err()
}

// CreateProduct inserts a listing and fills in its ID and timestamps
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = now, now
	if product.Images == nil {
		product.Images = []string{}
	}
	product.Seller = nil

	_, err := s.products.InsertOne(ctx, product)
	return mapError(err)
}

// UpdateProduct applies u to the listing and returns the new version
func (s *Store) UpdateProduct(ctx context.Context, id primitive.ObjectID, u ProductUpdate) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": u.set()}, opts).Decode(&product)
	if err != nil {
		return nil, mapError(err)
	}
	return &product, nil
}

// DeleteProduct removes a listing
func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProductsByOwner returns every listing of owner, newest first
func (s *Store) ListProductsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.products.Find(ctx, bson.M{"owner_id": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
