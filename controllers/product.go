package controllers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"ecofinds/catalog"
	"ecofinds/logging"
	"ecofinds/models"
	"ecofinds/store"
	"ecofinds/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogSourceHeader tells clients whether a listing page came from the store
// or from the built-in demo data
const CatalogSourceHeader = "X-Catalog-Source"

// ProductStore is the persistence ProductController needs
type ProductStore interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, u store.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ListProductsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Product, error)
}

// Catalog lists active products for browsing
type Catalog interface {
	List(ctx context.Context, q catalog.Query) (*catalog.Result, error)
}

// ProductController handles product-related requests
type ProductController struct {
	Store   ProductStore
	Catalog Catalog
}

// NewProductController creates a new ProductController
func NewProductController(products ProductStore, c Catalog) *ProductController {
	return &ProductController{Store: products, Catalog: c}
}

type createProductRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=80"`
	Description string   `json:"description" validate:"required,min=20,max=1000"`
	Category    string   `json:"category" validate:"required,category"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=1000000"`
	Images      []string `json:"images" validate:"max=5,dive,url"`
}

type updateProductRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=3,max=80"`
	Description *string  `json:"description" validate:"omitnil,min=20,max=1000"`
	Category    *string  `json:"category" validate:"omitnil,category"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0,lte=1000000"`
	Images      []string `json:"images" validate:"omitempty,max=5,dive,url"`
}

type statusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// toCents converts a rupee amount to paise
func toCents(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// GetProducts lists active products with search, category, sort and paging
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pc.Catalog.List(r.Context(), q)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("list products")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	if res.Degraded {
		w.Header().Set(CatalogSourceHeader, "fallback")
	} else {
		w.Header().Set(CatalogSourceHeader, "store")
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

// GetProductByID retrieves a single active product with its seller
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "product")
	if !ok {
		return
	}

	product, err := pc.Store.FindProduct(r.Context(), id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Ctx(r.Context()).Error().Err(err).Msg("find product")
		utils.WriteError(w, http.StatusInternalServerError, "Error loading product")
		return
	}
	if product == nil || !product.IsActive {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct lists a new product owned by the caller
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product := &models.Product{
		OwnerID:     uid,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		PriceCents:  toCents(*req.Price),
		Images:      req.Images,
		IsActive:    true,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := pc.Store.CreateProduct(r.Context(), product); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("create product")
		utils.WriteError(w, http.StatusInternalServerError, "Error creating product")
		return
	}
	logging.Ctx(r.Context()).Info().Str("product_id", product.ID.Hex()).Msg("product listed")
	utils.WriteJSON(w, http.StatusCreated, product)
}

// ownedProduct loads the {id} product and checks the caller owns it. On
// failure it has already answered and returns false.
func (pc *ProductController) ownedProduct(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	uid, ok := currentUser(w, r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := pathID(w, r, "id", "product")
	if !ok {
		return primitive.NilObjectID, false
	}

	product, err := pc.Store.FindProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Product not found")
			return primitive.NilObjectID, false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("find product")
		utils.WriteError(w, http.StatusInternalServerError, "Error loading product")
		return primitive.NilObjectID, false
	}
	if product.OwnerID != uid {
		utils.WriteError(w, http.StatusForbidden, "You can only change your own listings")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (pc *ProductController) applyUpdate(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, u store.ProductUpdate) {
	product, err := pc.Store.UpdateProduct(r.Context(), id, u)
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Product not found")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("update product")
		utils.WriteError(w, http.StatusInternalServerError, "Error updating product")
	default:
		utils.WriteJSON(w, http.StatusOK, product)
	}
}

// UpdateProduct changes the given fields of one of the caller's listings
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.ownedProduct(w, r)
	if !ok {
		return
	}
	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u := store.ProductUpdate{Category: req.Category}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		u.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		u.Description = &desc
	}
	if req.Price != nil {
		cents := toCents(*req.Price)
		u.PriceCents = &cents
	}
	if req.Images != nil {
		u.Images = &req.Images
	}
	pc.applyUpdate(w, r, id, u)
}

// SetProductStatus activates or deactivates one of the caller's listings
func (pc *ProductController) SetProductStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.ownedProduct(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pc.applyUpdate(w, r, id, store.ProductUpdate{IsActive: req.IsActive})
}

// DeleteProduct removes one of the caller's listings
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.ownedProduct(w, r)
	if !ok {
		return
	}

	err := pc.Store.DeleteProduct(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Product not found")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("delete product")
		utils.WriteError(w, http.StatusInternalServerError, "Error deleting product")
	default:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
	}
}

// MyProducts lists the caller's listings, active or not
func (pc *ProductController) MyProducts(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	products, err := pc.Store.ListProductsByOwner(r.Context(), uid)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("list own products")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}
