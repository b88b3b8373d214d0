// Package checkout turns a cart into a paid order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecofinds/logging"
	"ecofinds/metrics"
	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxLineQuantity caps the quantity of a single order line
const MaxLineQuantity = 10

// NotifyTimeout bounds the confirmation email sent after an order
const NotifyTimeout = 30 * time.Second

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrProductUnavailable = errors.New("product is not available")
)

// ProductLoader returns the products with the given IDs that exist
type ProductLoader interface {
	FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

// OrderWriter stores an order with its lines in one write
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) error
}

// CartCheckout hands the user's cart lines to place and empties the cart
// once place succeeds. No other change to that cart may land in between.
type CartCheckout interface {
	Checkout(ctx context.Context, userID primitive.ObjectID, place func(items []models.CartItem) error) error
}

// Notifier tells the buyer about the order
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, userID primitive.ObjectID, order models.Order) error
}

// Service performs checkout
type Service struct {
	products ProductLoader
	orders   OrderWriter
	carts    CartCheckout
	notifier Notifier
	now      func() time.Time
}

// NewService creates a checkout Service. notifier may be nil.
func NewService(products ProductLoader, orders OrderWriter, carts CartCheckout, notifier Notifier) *Service {
	return &Service{
		products: products,
		orders:   orders,
		carts:    carts,
		notifier: notifier,
		now:      time.Now,
	}
}

// Checkout prices the user's cart against the current catalog, writes a PAID
// order and clears the cart. An empty cart is rejected before any product or
// order is touched.
func (s *Service) Checkout(ctx context.Context, userID primitive.ObjectID) (*models.Order, error) {
	var order *models.Order
	err := s.carts.Checkout(ctx, userID, func(items []models.CartItem) error {
		var err error
		order, err = s.place(ctx, userID, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordOrder(order.TotalCents)

	if s.notifier != nil {
		go s.notify(context.WithoutCancel(ctx), userID, *order)
	}
	return order, nil
}

func (s *Service) notify(ctx context.Context, userID primitive.ObjectID, order models.Order) {
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	if err := s.notifier.SendOrderConfirmation(ctx, userID, order); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID.Hex()).Msg("failed to send order confirmation")
	}
}

func (s *Service) place(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: %d of %s", ErrInvalidQuantity, item.Quantity, item.Product.Title)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	order := &models.Order{
		UserID:    userID,
		Status:    models.OrderStatusPaid,
		Items:     make([]models.OrderItem, 0, len(items)),
		CreatedAt: s.now().UTC(),
	}
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.Product.Title)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:  p.ID,
			Title:      p.Title,
			PriceCents: p.PriceCents,
			Quantity:   item.Quantity,
		})
		order.TotalCents += p.PriceCents * int64(item.Quantity)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}
