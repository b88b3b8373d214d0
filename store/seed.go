package store

import (
	"context"
	"fmt"

	"ecofinds/catalog"
	"ecofinds/logging"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeedDemoData inserts the demo sellers and listings when the catalog is empty.
// It returns the number of listings inserted.
func (s *Store) SeedDemoData(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 4*s.timeout)
	defer cancel()

	count, err := s.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		logging.Debug().Int64("products", count).Msg("catalog not empty, skipping seed")
		return 0, nil
	}

	for _, p := range catalog.DemoProfiles() {
		update := bson.M{"$setOnInsert": bson.M{
			"username":   p.Username,
			"created_at": p.CreatedAt,
			"updated_at": p.UpdatedAt,
		}}
		if _, err := s.profiles.UpdateOne(ctx, bson.M{"_id": p.ID}, update, options.Update().SetUpsert(true)); err != nil {
			return 0, fmt.Errorf("seed profile %s: %w", p.Username, err)
		}
	}

	docs := make([]interface{}, 0)
	for _, p := range catalog.DemoProducts() {
		p.Seller = nil
		docs = append(docs, p)
	}
	if _, err := s.products.InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("seed products: %w", mapError(err))
	}
	return len(docs), nil
}
