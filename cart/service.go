package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ecofinds/logging"
	"ecofinds/models"
	"ecofinds/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQuantity caps a single line of a stored cart
const MaxQuantity = 10

var (
	// ErrProductUnavailable is returned when adding a missing or inactive product
	ErrProductUnavailable = errors.New("product is not available")
	ErrQuantityLimit      = fmt.Errorf("quantity per item cannot exceed %d", MaxQuantity)
)

// Repository persists one cart per user
type Repository interface {
	LoadCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
}

// ProductFinder looks a product up by ID. It returns an error wrapping
// store.ErrNotFound for unknown IDs.
type ProductFinder interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// View is a cart as returned to clients
type View struct {
	Items []models.CartItem `json:"items"`
	Total int64             `json:"total"`
}

// Service applies cart operations to the stored cart. Every mutation is
// written before it returns, and mutations for one user run one at a time.
type Service struct {
	repo     Repository
	products ProductFinder
	locks    sync.Map // user hex ID -> *sync.Mutex
}

// NewService creates a cart Service
func NewService(repo Repository, products ProductFinder) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) lock(userID primitive.ObjectID) func() {
	v, _ := s.locks.LoadOrStore(userID.Hex(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func viewOf(c *Cart) *View {
	return &View{Items: c.Items(), Total: c.Total()}
}

// Get returns the user's cart
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (*View, error) {
	items, err := s.repo.LoadCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return viewOf(New(items...)), nil
}

// Add puts quantity of a product in the user's cart
func (s *Service) Add(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*View, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProductUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, userID, func(c *Cart) error {
		item, err := c.AddItem(*product, quantity)
		if err != nil {
			return err
		}
		if item.Quantity > MaxQuantity {
			return ErrQuantityLimit
		}
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (s *Service) UpdateQuantity(ctx context.Context, userID primitive.ObjectID, itemID string, quantity int) (*View, error) {
	if quantity > MaxQuantity {
		return nil, ErrQuantityLimit
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.UpdateQuantity(itemID, quantity)
	})
}

// Remove deletes a line
func (s *Service) Remove(ctx context.Context, userID primitive.ObjectID, itemID string) (*View, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.RemoveItem(itemID)
	})
}

// Clear empties the user's cart
func (s *Service) Clear(ctx context.Context, userID primitive.ObjectID) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.repo.SaveCart(ctx, userID, []models.CartItem{}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout passes the user's cart to place and empties it once place
// succeeds. The user's cart stays locked until then, so a line added during
// checkout is either ordered or left in the cart. A failed clear is logged
// and not returned since the order already stands.
func (s *Service) Checkout(ctx context.Context, userID primitive.ObjectID, place func(items []models.CartItem) error) error {
	unlock := s.lock(userID)
	defer unlock()

	items, err := s.repo.LoadCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if err := place(items); err != nil {
		return err
	}

	if err := s.repo.SaveCart(ctx, userID, []models.CartItem{}); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID.Hex()).Msg("order placed but cart was not cleared")
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, userID primitive.ObjectID, op func(*Cart) error) (*View, error) {
	unlock := s.lock(userID)
	defer unlock()

	items, err := s.repo.LoadCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c := New(items...)
	if err := op(c); err != nil {
		return nil, err
	}

	if err := s.repo.SaveCart(ctx, userID, c.Items()); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return viewOf(c), nil
}
