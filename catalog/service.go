package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecofinds/logging"
	"ecofinds/metrics"
	"ecofinds/models"

	"github.com/sony/gobreaker/v2"
)

// ErrFetchFailed is returned when the store cannot serve the feed and no fallback applies
var ErrFetchFailed = errors.New("failed to fetch products")

// Querier runs a feed query against the product store. It returns up to
// q.Limit+1 rows.
type Querier interface {
	QueryProducts(ctx context.Context, q Query) ([]models.Product, error)
}

// Result is one page of the feed
type Result struct {
	Products []models.Product `json:"products"`
	HasMore  bool             `json:"hasMore"`
	// Degraded marks a page built from demo data after a store failure
	Degraded bool `json:"degraded,omitempty"`
}

// Service serves the product feed
type Service struct {
	store    Querier
	breaker  *gobreaker.CircuitBreaker[[]models.Product]
	fallback bool
}

// NewService creates a Service. With fallback set, store failures are
// answered with demo data flagged as degraded.
func NewService(store Querier, fallback bool) *Service {
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a client going away says nothing about the store
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Service{
		store:    store,
		breaker:  gobreaker.NewCircuitBreaker[[]models.Product](settings),
		fallback: fallback,
	}
}

// List returns one page of active listings matching q
func (s *Service) List(ctx context.Context, q Query) (*Result, error) {
	rows, err := s.breaker.Execute(func() ([]models.Product, error) {
		return s.store.QueryProducts(ctx, q)
	})
	if err != nil {
		if !s.fallback || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("catalog query failed, serving demo data")
		metrics.CatalogFallbacks.Inc()

		page, more := Apply(DemoProducts(), q)
		return &Result{Products: page, HasMore: more, Degraded: true}, nil
	}

	res := &Result{Products: rows}
	if len(rows) > q.Limit {
		res.Products = rows[:q.Limit]
		res.HasMore = true
	}
	if res.Products == nil {
		res.Products = []models.Product{}
	}
	return res, nil
}
