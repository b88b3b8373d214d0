package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ecofinds/models"
	"ecofinds/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	mu      sync.Mutex
	carts   map[primitive.ObjectID][]models.CartItem
	saves   int
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{carts: map[primitive.ObjectID][]models.CartItem{}}
}

func (r *memRepo) LoadCart(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CartItem(nil), r.carts[userID]...), nil
}

func (r *memRepo) SaveCart(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.carts[userID] = append([]models.CartItem(nil), items...)
	return nil
}

type memProducts map[primitive.ObjectID]models.Product

func (m memProducts) FindProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id.Hex(), store.ErrNotFound)
	}
	return &p, nil
}

type brokenProducts struct{ err error }

func (b brokenProducts) FindProduct(context.Context, primitive.ObjectID) (*models.Product, error) {
	return nil, b.err
}

func TestServiceAddPersists(t *testing.T) {
	repo := newMemRepo()
	p := product(45000)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.Add(ctx, user, p.ID, 1)
	require.NoError(t, err)
	view, err := svc.Add(ctx, user, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, int64(135000), view.Total)
	assert.Equal(t, "Desk", view.Items[0].Product.Title)

	stored, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, view, stored)
}

func TestServiceAddUnavailable(t *testing.T) {
	inactive := product(100)
	inactive.IsActive = false
	svc := NewService(newMemRepo(), memProducts{inactive.ID: inactive})
	user := primitive.NewObjectID()

	_, err := svc.Add(context.Background(), user, inactive.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = svc.Add(context.Background(), user, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestServiceAddStoreFailure(t *testing.T) {
	outage := errors.New("server selection error: connection refused")
	repo := newMemRepo()
	svc := NewService(repo, brokenProducts{err: outage})

	_, err := svc.Add(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, ErrProductUnavailable)
	assert.Zero(t, repo.saves)
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	repo := newMemRepo()
	a, b := product(100), product(200)
	svc := NewService(repo, memProducts{a.ID: a, b.ID: b})
	user := primitive.NewObjectID()
	ctx := context.Background()

	_, _ = svc.Add(ctx, user, a.ID, 1)
	view, _ := svc.Add(ctx, user, b.ID, 1)
	itemA, itemB := view.Items[0].ID, view.Items[1].ID

	view, err := svc.UpdateQuantity(ctx, user, itemA, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(600), view.Total)

	view, err = svc.UpdateQuantity(ctx, user, itemA, 0)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	view, err = svc.Remove(ctx, user, itemB)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)

	_, err = svc.Remove(ctx, user, itemB)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, _ = svc.Add(ctx, user, a.ID, 1)
	require.NoError(t, svc.Clear(ctx, user))
	view, _ = svc.Get(ctx, user)
	assert.Empty(t, view.Items)
}

func TestServiceFailedOpDoesNotSave(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, memProducts{})

	_, err := svc.UpdateQuantity(context.Background(), primitive.NewObjectID(), "nope", 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Zero(t, repo.saves)
}

func TestServiceConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	repo := newMemRepo()
	p := product(10)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Add(context.Background(), user, p.ID, 1)
		}()
	}
	wg.Wait()

	view, err := svc.Get(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 20, view.Items[0].Quantity)
}

func TestServiceQuantityLimit(t *testing.T) {
	repo := newMemRepo()
	p := product(100)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()
	ctx := context.Background()

	view, err := svc.Add(ctx, user, p.ID, 6)
	require.NoError(t, err)

	_, err = svc.Add(ctx, user, p.ID, 5)
	assert.ErrorIs(t, err, ErrQuantityLimit)

	_, err = svc.UpdateQuantity(ctx, user, view.Items[0].ID, 11)
	assert.ErrorIs(t, err, ErrQuantityLimit)

	stored, _ := svc.Get(ctx, user)
	assert.Equal(t, 6, stored.Items[0].Quantity, "rejected changes are not saved")
}

func TestServiceCheckoutClearsOnSuccess(t *testing.T) {
	repo := newMemRepo()
	p := product(100)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()
	ctx := context.Background()
	_, err := svc.Add(ctx, user, p.ID, 2)
	require.NoError(t, err)

	var placed []models.CartItem
	require.NoError(t, svc.Checkout(ctx, user, func(items []models.CartItem) error {
		placed = items
		return nil
	}))

	require.Len(t, placed, 1)
	assert.Equal(t, 2, placed[0].Quantity)
	view, _ := svc.Get(ctx, user)
	assert.Empty(t, view.Items)
}

func TestServiceCheckoutKeepsCartOnFailure(t *testing.T) {
	repo := newMemRepo()
	p := product(100)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()
	ctx := context.Background()
	_, err := svc.Add(ctx, user, p.ID, 1)
	require.NoError(t, err)

	rejected := errors.New("rejected")
	err = svc.Checkout(ctx, user, func([]models.CartItem) error { return rejected })

	assert.ErrorIs(t, err, rejected)
	view, _ := svc.Get(ctx, user)
	assert.Len(t, view.Items, 1)
}

func TestServiceCheckoutSurvivesClearFailure(t *testing.T) {
	repo := newMemRepo()
	p := product(100)
	svc := NewService(repo, memProducts{p.ID: p})
	user := primitive.NewObjectID()
	ctx := context.Background()
	_, err := svc.Add(ctx, user, p.ID, 1)
	require.NoError(t, err)

	repo.saveErr = errors.New("timeout")
	called := false
	err = svc.Checkout(ctx, user, func([]models.CartItem) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestServiceCheckoutHoldsCartUntilCleared(t *testing.T) {
	repo := newMemRepo()
	lamp, chair := product(100), product(200)
	svc := NewService(repo, memProducts{lamp.ID: lamp, chair.ID: chair})
	user := primitive.NewObjectID()
	ctx := context.Background()
	_, err := svc.Add(ctx, user, lamp.ID, 1)
	require.NoError(t, err)

	added := make(chan error, 1)
	var placed []models.CartItem
	err = svc.Checkout(ctx, user, func(items []models.CartItem) error {
		placed = items
		go func() {
			_, err := svc.Add(ctx, user, chair.ID, 1)
			added <- err
		}()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-added)

	require.Len(t, placed, 1)
	assert.Equal(t, lamp.ID, placed[0].ProductID)

	view, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "a line added during checkout stays in the cart")
	assert.Equal(t, chair.ID, view.Items[0].ProductID)
}
