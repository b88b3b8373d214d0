package catalog

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseQueryDefaults(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, Query{Sort: SortNewest, Page: 1, Limit: DefaultLimit}, q)
	assert.True(t, q.AllCategories())
	assert.Equal(t, 0, q.Offset())
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{
		"query":    {"  desk "},
		"category": {"Home & Living"},
		"sort":     {"price_desc"},
		"page":     {"3"},
		"limit":    {"10"},
	})
	require.NoError(t, err)

	assert.Equal(t, "desk", q.Search)
	assert.Equal(t, "Home & Living", q.Category)
	assert.Equal(t, SortPriceDesc, q.Sort)
	assert.Equal(t, 20, q.Offset())
	assert.False(t, q.AllCategories())
}

func TestParseQueryUnknownSortFallsBack(t *testing.T) {
	q, err := ParseQuery(url.Values{"sort": {"popularity"}})
	require.NoError(t, err)
	assert.Equal(t, SortNewest, q.Sort)
}

func TestParseQueryRejects(t *testing.T) {
	cases := map[string]url.Values{
		"unknown category": {"category": {"Weapons"}},
		"zero page":        {"page": {"0"}},
		"text page":        {"page": {"two"}},
		"zero limit":       {"limit": {"0"}},
		"huge limit":       {"limit": {"1000"}},
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuery(v)
			assert.True(t, errors.Is(err, ErrInvalidQuery))
		})
	}
}

func TestFilter(t *testing.T) {
	t.Run("all categories, no search", func(t *testing.T) {
		assert.Equal(t, bson.D{{Key: "is_active", Value: true}}, Filter(Query{Category: CategoryAll}))
	})

	t.Run("search is escaped and case-insensitive", func(t *testing.T) {
		f := Filter(Query{Search: "a.b(c"})
		require.Len(t, f, 2)
		assert.Equal(t, "title", f[1].Key)
		assert.Equal(t, bson.M{"$regex": `a\.b\(c`, "$options": "i"}, f[1].Value)
	})

	t.Run("category equality", func(t *testing.T) {
		f := Filter(Query{Category: "Electronics"})
		assert.Equal(t, bson.E{Key: "category", Value: "Electronics"}, f[len(f)-1])
	})
}

func TestSortSpec(t *testing.T) {
	assert.Equal(t, "created_at", SortSpec(Query{Sort: SortNewest})[0].Key)
	assert.Equal(t, -1, SortSpec(Query{Sort: SortNewest})[0].Value)
	assert.Equal(t, bson.E{Key: "price_cents", Value: 1}, SortSpec(Query{Sort: SortPriceAsc})[0])
	assert.Equal(t, bson.E{Key: "price_cents", Value: -1}, SortSpec(Query{Sort: SortPriceDesc})[0])
}

func TestBuildPipeline(t *testing.T) {
	q := Query{Category: "Electronics", Sort: SortPriceAsc, Page: 2, Limit: 10}
	p := BuildPipeline(q)

	var stages []string
	for _, stage := range p {
		stages = append(stages, stage[0].Key)
	}
	assert.Equal(t, []string{"$match", "$sort", "$skip", "$limit", "$lookup", "$unwind", "$project"}, stages)
	assert.Equal(t, Filter(q), p[0][0].Value)
	assert.Equal(t, int64(10), p[2][0].Value)
	assert.Equal(t, int64(11), p[3][0].Value, "one extra row to detect another page")
}
