// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecofinds/cart"
	"ecofinds/catalog"
	"ecofinds/checkout"
	"ecofinds/config"
	"ecofinds/controllers"
	"ecofinds/logging"
	"ecofinds/middleware"
	"ecofinds/routes"
	"ecofinds/store"
	"ecofinds/utils"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration from defaults, CONFIG_PATH, .env and the environment
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)
	utils.TokenTTL = cfg.TokenTTL

	// Connect to MongoDB
	ctx := context.Background()
	client, err := store.ConnectDB(ctx, cfg.MongoURI, cfg.DBTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("database unavailable")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Error().Err(err).Msg("disconnect from mongodb")
		}
	}()

	db := store.New(client, cfg.MongoDatabase, cfg.DBTimeout)
	if err := db.EnsureIndexes(ctx); err != nil {
		logging.Fatal().Err(err).Msg("create indexes")
	}
	if cfg.SeedDemoData {
		n, err := db.SeedDemoData(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("seed demo data")
		} else if n > 0 {
			logging.Info().Int("products", n).Msg("seeded demo catalog")
		}
	}

	// Initialize services
	emailService := utils.NewEmailService(utils.NewMailer(cfg), db)
	carts := cart.NewService(db, db)
	checkouts := checkout.NewService(db, db, carts, emailService)
	listings := catalog.NewService(db, cfg.CatalogFallback)

	// Initialize controllers
	c := routes.Controllers{
		Health:  controllers.NewHealthController(db),
		User:    controllers.NewUserController(db, emailService),
		Product: controllers.NewProductController(db, listings),
		Cart:    controllers.NewCartController(carts),
		Order:   controllers.NewOrderController(checkouts, db),
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)
	routes.RegisterRoutes(router, cfg.APIPrefix, middleware.RateLimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow), c)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.AllowedOrigins())(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log := logging.WithComponent("server")
	go func() {
		log.Info().Str("addr", server.Addr).Str("prefix", cfg.APIPrefix).Msg("server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for a shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
