// routes/routes.go
package routes

import (
	"net/http"

	"ecofinds/controllers"
	"ecofinds/middleware"
	"ecofinds/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the handlers the router serves
type Controllers struct {
	Health  *controllers.HealthController
	User    *controllers.UserController
	Product *controllers.ProductController
	Cart    *controllers.CartController
	Order   *controllers.OrderController
}

// RegisterRoutes sets up all the routes for the application under prefix.
// authLimit, when non-nil, throttles signup and login.
func RegisterRoutes(router *mux.Router, prefix string, authLimit func(http.Handler) http.Handler, c Controllers) {
	api := router
	if prefix != "" {
		api = router.PathPrefix(prefix).Subrouter()
	}

	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(h)
	}
	limit := func(h http.HandlerFunc) http.Handler {
		if authLimit == nil {
			return h
		}
		return authLimit(h)
	}

	// Public routes
	api.HandleFunc("/health", c.Health.Health).Methods("GET")
	api.Handle("/metrics", promhttp.Handler()).Methods("GET")
	api.Handle("/signup", limit(c.User.Signup)).Methods("POST")
	api.Handle("/login", limit(c.User.Login)).Methods("POST")

	// Profile routes
	api.Handle("/profile", protect(c.User.GetProfile)).Methods("GET")
	api.Handle("/profile", protect(c.User.UpdateProfile)).Methods("PUT")

	// Product routes
	api.HandleFunc("/products", c.Product.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", c.Product.GetProductByID).Methods("GET")
	api.Handle("/products", protect(c.Product.CreateProduct)).Methods("POST")
	api.Handle("/products/{id}", protect(c.Product.UpdateProduct)).Methods("PUT")
	api.Handle("/products/{id}/status", protect(c.Product.SetProductStatus)).Methods("PATCH")
	api.Handle("/products/{id}", protect(c.Product.DeleteProduct)).Methods("DELETE")
	api.Handle("/me/products", protect(c.Product.MyProducts)).Methods("GET")

	// Cart routes
	api.Handle("/cart", protect(c.Cart.GetCart)).Methods("GET")
	api.Handle("/cart", protect(c.Cart.ClearCart)).Methods("DELETE")
	api.Handle("/cart/items", protect(c.Cart.AddToCart)).Methods("POST")
	api.Handle("/cart/items/{itemId}", protect(c.Cart.UpdateCartItem)).Methods("PATCH")
	api.Handle("/cart/items/{itemId}", protect(c.Cart.RemoveFromCart)).Methods("DELETE")

	// Order routes
	api.Handle("/checkout", protect(c.Order.CreateOrder)).Methods("POST")
	api.Handle("/orders", protect(c.Order.GetOrders)).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
