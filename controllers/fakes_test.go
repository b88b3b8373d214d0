package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ecofinds/middleware"
	"ecofinds/models"
	"ecofinds/store"
	"ecofinds/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for store.Store
type memStore struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	profiles map[primitive.ObjectID]models.Profile
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID][]models.CartItem
	orders   []models.Order

	upsertErrs  []error
	upsertCalls int
	deleted     []primitive.ObjectID

	// onUpsert, when set, runs before each profile upsert
	onUpsert func()
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[primitive.ObjectID]models.User{},
		profiles: map[primitive.ObjectID]models.Profile{},
		products: map[primitive.ObjectID]models.Product{},
		carts:    map[primitive.ObjectID][]models.CartItem{},
	}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if m.onUpsert != nil {
		m.onUpsert()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if len(m.upsertErrs) > 0 {
		err := m.upsertErrs[0]
		m.upsertErrs = m.upsertErrs[1:]
		if err != nil {
			return err
		}
	}
	for id, p := range m.profiles {
		if id != profile.ID && p.Username == profile.Username {
			return store.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if existing, ok := m.profiles[profile.ID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *memStore) FindProfile(_ context.Context, id primitive.ObjectID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id primitive.ObjectID, username, avatarURL *string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if username != nil {
		for other, q := range m.profiles {
			if other != id && q.Username == *username {
				return nil, store.ErrDuplicate
			}
		}
		p.Username = *username
	}
	if avatarURL != nil {
		p.AvatarURL = avatarURL
	}
	m.profiles[id] = p
	return &p, nil
}

func (m *memStore) FindProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) FindProductsByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now().UTC()
	product.UpdatedAt = product.CreatedAt
	m.products[product.ID] = *product
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, id primitive.ObjectID, u store.ProductUpdate) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.PriceCents != nil {
		p.PriceCents = *u.PriceCents
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	m.products[id] = p
	return &p, nil
}

func (m *memStore) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) ListProductsByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) LoadCart(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartItem(nil), m.carts[userID]...), nil
}

func (m *memStore) SaveCart(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = append([]models.CartItem(nil), items...)
	return nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = primitive.NewObjectID()
	m.orders = append(m.orders, *order)
	return nil
}

func (m *memStore) ListOrders(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

// addProduct stores an active listing owned by owner
func (m *memStore) addProduct(owner primitive.ObjectID, title string, priceCents int64) models.Product {
	p := models.Product{
		ID:          primitive.NewObjectID(),
		OwnerID:     owner,
		Title:       title,
		Description: "A well kept second-hand item in good shape",
		Category:    "Electronics",
		PriceCents:  priceCents,
		Images:      []string{},
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return p
}

// call runs h on a request, optionally as user uid with mux path vars
func call(t *testing.T, h http.HandlerFunc, method, target, body string, uid *primitive.ObjectID, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != nil {
		claims := &utils.Claims{UserID: uid.Hex(), Email: "caller@example.com"}
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}
