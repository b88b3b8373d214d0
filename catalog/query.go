// Package catalog turns browse state (search text, category, sort key, page)
// into product queries and serves the listing feed.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sort keys accepted by the feed
const (
	SortNewest    = "created_at_desc"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"

	CategoryAll = "all"

	DefaultLimit = 24
	MaxLimit     = 100
)

// ErrInvalidQuery wraps every ParseQuery failure
var ErrInvalidQuery = errors.New("invalid catalog query")

// Query is the browse state of the feed
type Query struct {
	Search   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

// AllCategories reports whether q spans every category
func (q Query) AllCategories() bool {
	return q.Category == "" || q.Category == CategoryAll
}

// Offset is the number of rows skipped before the current page
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseQuery reads query, category, sort, page and limit from v
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search:   strings.TrimSpace(v.Get("query")),
		Category: v.Get("category"),
		Sort:     normalizeSort(v.Get("sort")),
		Page:     1,
		Limit:    DefaultLimit,
	}

	if !q.AllCategories() && !models.IsCategory(q.Category) {
		return Query{}, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, q.Category)
	}

	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Query{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidQuery)
		}
		q.Page = page
	}

	if raw := v.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Query{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
		}
		q.Limit = limit
	}

	return q, nil
}

// Unknown sort keys fall back to newest first
func normalizeSort(s string) string {
	switch s {
	case SortPriceAsc, SortPriceDesc:
		return s
	default:
		return SortNewest
	}
}

// Filter is the $match document for q
func Filter(q Query) bson.D {
	filter := bson.D{{Key: "is_active", Value: true}}
	if q.Search != "" {
		filter = append(filter, bson.E{Key: "title", Value: bson.M{
			"$regex":   regexp.QuoteMeta(q.Search),
			"$options": "i",
		}})
	}
	if !q.AllCategories() {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	return filter
}

// SortSpec is the $sort document for q; _id breaks ties so pages are stable
func SortSpec(q Query) bson.D {
	switch q.Sort {
	case SortPriceAsc:
		return bson.D{{Key: "price_cents", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price_cents", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// BuildPipeline builds the feed aggregation. It asks for one row past the page
// so the caller can tell whether another page exists.
func BuildPipeline(q Query) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: Filter(q)}},
		{{Key: "$sort", Value: SortSpec(q)}},
		{{Key: "$skip", Value: int64(q.Offset())}},
		{{Key: "$limit", Value: int64(q.Limit + 1)}},
	}
	return append(pipeline, SellerStages()...)
}

// SellerStages embed the owner's username and avatar as "seller"
func SellerStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "profiles"},
			{Key: "localField", Value: "owner_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "seller"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$seller"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "seller._id", Value: 0},
			{Key: "seller.created_at", Value: 0},
			{Key: "seller.updated_at", Value: 0},
		}}},
	}
}
