package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nutriscan/backend/config"
	httpDelivery "github.com/nutriscan/backend/internal/delivery/http"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/barcode"
	"github.com/nutriscan/backend/internal/infrastructure/cache"
	"github.com/nutriscan/backend/internal/infrastructure/imaging"
	"github.com/nutriscan/backend/internal/infrastructure/logger"
	"github.com/nutriscan/backend/internal/infrastructure/metrics"
	"github.com/nutriscan/backend/internal/infrastructure/nutritionix"
	"github.com/nutriscan/backend/internal/infrastructure/openfoodfacts"
	"github.com/nutriscan/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// scanStore is a scan-token store that owns resources
type scanStore interface {
	domain.CacheRepository
	io.Closer
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}

	logg.WithFields(logrus.Fields{
		"version":     httpDelivery.Version,
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cache":       cfg.Cache.Type,
	}).Info("Starting NutriScan Backend")

	// Initialize infrastructure dependencies
	m := metrics.New()

	store, err := newScanStore(cfg.Cache)
	if err != nil {
		logg.Fatalf("Failed to initialise scan store: %v", err)
	}
	defer store.Close()

	offClient := openfoodfacts.NewClient(cfg.OpenFoodFacts, logg)
	nixClient := nutritionix.NewClient(cfg.Nutritionix, logg)
	if nixClient.Enabled() {
		logg.Infof("Nutritionix configured: %s", cfg.Nutritionix.BaseURL)
	} else {
		logg.Warn("Nutritionix credentials not configured, secondary lookups disabled")
	}

	// Initialize usecase layer
	resolver := usecase.NewResolutionService(
		[]domain.ProductProvider{offClient, nixClient},
		m,
		logg,
	)
	scanner := usecase.NewScanService(
		imaging.NewDecoder(),
		barcode.NewLocator(logg),
		store,
		resolver,
		m,
		logg,
		usecase.ScanServiceConfig{ScanTTL: cfg.Cache.ScanTTL},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, scanner, logg)
	router := httpDelivery.SetupRouter(cfg, handler, logg, m)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logg.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	logg.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logg.WithError(err).Error("Graceful shutdown failed")
	}
}

// newScanStore selects the scan-token store from configuration
func newScanStore(cfg config.CacheConfig) (scanStore, error) {
	switch cfg.Type {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cfg.RedisURL, "nutriscan:")
	default:
		return cache.NewMemoryCache(cache.DefaultCleanupInterval), nil
	}
}
