// controllers/order.go
package controllers

import (
	"context"
	"errors"
	"net/http"

	"ecofinds/checkout"
	"ecofinds/logging"
	"ecofinds/models"
	"ecofinds/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkouter turns the user's cart into an order
type Checkouter interface {
	Checkout(ctx context.Context, userID primitive.ObjectID) (*models.Order, error)
}

// OrderLister returns a user's order history
type OrderLister interface {
	ListOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
}

// OrderController handles order-related requests
type OrderController struct {
	Checkout Checkouter
	Orders   OrderLister
}

// NewOrderController creates a new OrderController
func NewOrderController(co Checkouter, orders OrderLister) *OrderController {
	return &OrderController{Checkout: co, Orders: orders}
}

// CreateOrder checks out the caller's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	order, err := oc.Checkout.Checkout(ctx, uid)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		utils.WriteError(w, http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, checkout.ErrInvalidQuantity), errors.Is(err, checkout.ErrProductUnavailable):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		logging.Ctx(ctx).Error().Err(err).Msg("checkout")
		utils.WriteError(w, http.StatusInternalServerError, "Checkout failed")
	default:
		logging.Ctx(ctx).Info().
			Str("order_id", order.ID.Hex()).
			Int64("total_cents", order.TotalCents).
			Int("lines", len(order.Items)).
			Msg("order placed")
		utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"order":      order,
			"totalCents": order.TotalCents,
		})
	}
}

// GetOrders returns the caller's orders, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := oc.Orders.ListOrders(r.Context(), uid)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("list orders")
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}
