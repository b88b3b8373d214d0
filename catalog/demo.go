package catalog

import (
	"sort"
	"strings"
	"time"

	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owners of the demo listings
var (
	DemoSellerID = mustObjectID("65a4c0de0000000000000001")
	DemoBuyerID  = mustObjectID("65a4c0de0000000000000002")
)

func mustObjectID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

// DemoProfiles are the sellers of DemoProducts
func DemoProfiles() []models.Profile {
	return []models.Profile{
		{ID: DemoSellerID, Username: "eco_seller", CreatedAt: day(1), UpdatedAt: day(1)},
		{ID: DemoBuyerID, Username: "green_buyer", CreatedAt: day(1), UpdatedAt: day(1)},
	}
}

// DemoProducts returns a fresh copy of the fixed demo catalog
func DemoProducts() []models.Product {
	seller := &models.SellerSummary{Username: "eco_seller"}
	buyer := &models.SellerSummary{Username: "green_buyer"}

	products := []models.Product{
		{
			ID:          mustObjectID("65a4c0de00000000000000a1"),
			OwnerID:     DemoSellerID,
			Title:       "Kindle Paperwhite (11th Gen)",
			Description: "Gently used e-reader in excellent condition. Perfect for sustainable reading with long battery life and no ads.",
			Category:    "Electronics",
			PriceCents:  450000,
			CreatedAt:   day(15),
			Seller:      seller,
		},
		{
			ID:          mustObjectID("65a4c0de00000000000000a2"),
			OwnerID:     DemoSellerID,
			Title:       "Vintage Wooden Study Desk",
			Description: "Beautiful solid wood desk perfect for home office or student use. Some minor scratches that add character.",
			Category:    "Home & Living",
			PriceCents:  350000,
			CreatedAt:   day(14),
			Seller:      seller,
		},
		{
			ID:          mustObjectID("65a4c0de00000000000000a3"),
			OwnerID:     DemoSellerID,
			Title:       "English Willow Cricket Bat",
			Description: "Professional grade cricket bat made from premium English willow. Lightweight design with excellent pickup.",
			Category:    "Sports & Outdoors",
			PriceCents:  220000,
			CreatedAt:   day(13),
			Seller:      seller,
		},
		{
			ID:          mustObjectID("65a4c0de00000000000000a4"),
			OwnerID:     DemoBuyerID,
			Title:       "Vintage Leather Messenger Bag",
			Description: "Handcrafted genuine leather messenger bag with beautiful patina. Perfect for daily use or business.",
			Category:    "Fashion & Apparel",
			PriceCents:  180000,
			CreatedAt:   day(12),
			Seller:      buyer,
		},
		{
			ID:          mustObjectID("65a4c0de00000000000000a5"),
			OwnerID:     DemoBuyerID,
			Title:       "Complete Harry Potter Book Set",
			Description: "All 7 books in excellent condition. Perfect for gifting or adding to your collection.",
			Category:    "Books & Media",
			PriceCents:  120000,
			CreatedAt:   day(11),
			Seller:      buyer,
		},
	}
	for i := range products {
		products[i].Images = []string{}
		products[i].IsActive = true
		products[i].UpdatedAt = products[i].CreatedAt
	}
	return products
}

// Apply runs q over an in-memory product list the same way BuildPipeline
// does in the store. It returns the requested page and whether more follow.
func Apply(products []models.Product, q Query) ([]models.Product, bool) {
	search := strings.ToLower(q.Search)

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if !q.AllCategories() && p.Category != q.Category {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Sort {
		case SortPriceAsc:
			return a.PriceCents < b.PriceCents
		case SortPriceDesc:
			return a.PriceCents > b.PriceCents
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	start := q.Offset()
	if start >= len(matched) {
		return []models.Product{}, false
	}
	end := start + q.Limit
	if end >= len(matched) {
		return matched[start:], false
	}
	return matched[start:end], true
}
