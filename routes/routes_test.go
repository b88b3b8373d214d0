package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecofinds/controllers"
	"ecofinds/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(prefix string, limit func(http.Handler) http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)
	RegisterRoutes(router, prefix, limit, Controllers{
		Health:  controllers.NewHealthController(nil),
		User:    controllers.NewUserController(nil, nil),
		Product: controllers.NewProductController(nil, nil),
		Cart:    controllers.NewCartController(nil),
		Order:   controllers.NewOrderController(nil, nil),
	})
	return router
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRoutesUnderPrefix(t *testing.T) {
	router := newRouter("/api", nil)

	rec := serve(router, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = serve(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router := newRouter("", nil)

	protected := []struct{ method, path string }{
		{http.MethodPost, "/products"},
		{http.MethodPut, "/products/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodPatch, "/products/64b7f0c2a1b2c3d4e5f60718/status"},
		{http.MethodDelete, "/products/64b7f0c2a1b2c3d4e5f60718"},
		{http.MethodGet, "/me/products"},
		{http.MethodGet, "/profile"},
		{http.MethodPut, "/profile"},
		{http.MethodGet, "/cart"},
		{http.MethodDelete, "/cart"},
		{http.MethodPost, "/cart/items"},
		{http.MethodPatch, "/cart/items/abc"},
		{http.MethodDelete, "/cart/items/abc"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/orders"},
	}
	for _, r := range protected {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := serve(router, r.method, r.path)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newRouter("", nil)

	rec := serve(router, http.MethodDelete, "/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	router := newRouter("", middleware.RateLimitByIP(1, time.Minute))

	first := serve(router, http.MethodPost, "/login")
	assert.Equal(t, http.StatusBadRequest, first.Code, "empty body reaches the handler")

	second := serve(router, http.MethodPost, "/login")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := serve(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, health.Code)
}
