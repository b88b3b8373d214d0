package controllers

import (
	"context"
	"errors"
	"net/http"

	"ecofinds/cart"
	"ecofinds/logging"
	"ecofinds/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartService is the cart behaviour CartController exposes
type CartService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*cart.View, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*cart.View, error)
	UpdateQuantity(ctx context.Context, userID primitive.ObjectID, itemID string, quantity int) (*cart.View, error)
	Remove(ctx context.Context, userID primitive.ObjectID, itemID string) (*cart.View, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// CartController handles cart-related requests
type CartController struct {
	Carts CartService
}

// NewCartController creates a new CartController
func NewCartController(carts CartService) *CartController {
	return &CartController{Carts: carts}
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=10"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=10"`
}

// writeCartError maps cart errors to responses
func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		utils.WriteError(w, http.StatusNotFound, "Cart item not found")
	case errors.Is(err, cart.ErrProductUnavailable):
		utils.WriteError(w, http.StatusBadRequest, "Product is not available")
	case errors.Is(err, cart.ErrQuantityLimit), errors.Is(err, cart.ErrInvalidQuantity):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("cart operation")
		utils.WriteError(w, http.StatusInternalServerError, "Error updating cart")
	}
}

// GetCart returns the caller's cart with its total
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := cc.Carts.Get(r.Context(), uid)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("get cart")
		utils.WriteError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

// AddToCart adds a product to the caller's cart, merging with an existing line
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	view, err := cc.Carts.Add(r.Context(), uid, productID, req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

// UpdateCartItem sets a line's quantity; zero or less removes it
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := cc.Carts.UpdateQuantity(r.Context(), uid, mux.Vars(r)["itemId"], *req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

// RemoveFromCart removes one line from the caller's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := cc.Carts.Remove(r.Context(), uid, mux.Vars(r)["itemId"])
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

// ClearCart empties the caller's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := cc.Carts.Clear(r.Context(), uid); err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, &cart.View{Items: cart.New().Items()})
}
