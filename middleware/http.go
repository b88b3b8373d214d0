package middleware

import (
	"net/http"
	"time"

	"ecofinds/utils"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// CORS allows browser clients from origins to call the API with bearer tokens
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"Content-Length", RequestIDHeader, "X-Catalog-Source"},
		MaxAge:         600,
	})
}

// RateLimitByIP limits each client IP to requests per window. requests <= 0
// disables the limit.
func RateLimitByIP(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.WriteError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
		}),
	)
}
