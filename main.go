package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "seatengine/internal/config"
	intdb "seatengine/internal/db"
	"seatengine/internal/domain/models"
	router "seatengine/internal/http"
	"seatengine/internal/http/handlers"
	"seatengine/internal/repositories"
	"seatengine/internal/services"
	"seatengine/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	log := utils.InitLogger(env.IsProduction(), env.LogLevel)
	defer func() { _ = log.Sync() }()

	inventory, catalog, err := openStores(env)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("driver", env.DBDriver), zap.Error(err))
	}
	defer intconfig.CloseDB()
	handlers.SetStorageDriver(env.DBDriver)

	rdb, err := intconfig.ConnectRedis(context.Background(), env)
	if err != nil {
		// Idempotency keys are optional; run without them.
		log.Warn("redis unavailable, idempotency disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	pricing := services.PricingService{Catalog: catalog, Timeout: env.StoreTimeout}
	query := services.QueryService{Inventory: inventory, Catalog: catalog, Timeout: env.StoreTimeout}
	deps := router.Deps{
		Bookings: services.BookingService{
			Inventory:     inventory,
			Catalog:       catalog,
			Pricing:       pricing,
			Timeout:       env.StoreTimeout,
			InitialStatus: models.BookingStatus(env.BookingInitialStatus),
		},
		Query:     query,
		Inventory: services.InventoryService{Inventory: inventory, Catalog: catalog, Timeout: env.StoreTimeout},
		Pricing:   pricing,
		Docs:      services.DocsService{Query: query, Catalog: catalog},
		Redis:     rdb,
	}

	r := router.NewRouter(env, deps)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("seat engine listening", zap.String("addr", env.AppAddr), zap.String("driver", env.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// In-flight atomic units run detached from request contexts; give them
	// time to commit before the store closes.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

// openStores returns the inventory and catalog for DB_DRIVER.
func openStores(env intconfig.Env) (repositories.InventoryStore, repositories.CatalogStore, error) {
	if env.DBDriver == "memory" {
		store := repositories.NewMemoryStore()
		catalog := repositories.NewMemoryCatalog()
		if env.SeedDemoData {
			repositories.SeedMemory(catalog, repositories.Demo())
		}
		return store, catalog, nil
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := intdb.EnsureSchema(ctx, db); err != nil {
		return nil, nil, err
	}
	if env.SeedDemoData {
		if err := repositories.SeedSQL(ctx, db, repositories.Demo()); err != nil {
			return nil, nil, err
		}
	}
	return repositories.InventoryRepo{DB: db}, repositories.CatalogRepo{DB: db}, nil
}
