package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/paceline/backend/config"
	httpDelivery "github.com/paceline/backend/internal/delivery/http"
	"github.com/paceline/backend/internal/domain"
	"github.com/paceline/backend/internal/infrastructure/cache"
	"github.com/paceline/backend/internal/infrastructure/catalog"
	"github.com/paceline/backend/internal/infrastructure/checkout"
	"github.com/paceline/backend/internal/infrastructure/marketplace"
	"github.com/paceline/backend/internal/infrastructure/merchants"
	"github.com/paceline/backend/internal/infrastructure/openai"
	"github.com/paceline/backend/internal/infrastructure/scrape"
	"github.com/paceline/backend/internal/infrastructure/storefront"
	"github.com/paceline/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.Infof("Starting Paceline Backend v1.0.0")
	logrus.Infof("Environment: %s", cfg.Server.Environment)
	logrus.Infof("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	logrus.Infof("Cache TTL: %s", cfg.Cache.TTL)

	// Catalog search adapters, in priority order. The storefront is
	// trusted most, then the marketplace scrape, then bare links into
	// the allowed external merchants.
	adapters := []domain.CatalogAdapter{
		storefront.NewClient(cfg.Storefront.URL, cfg.Storefront.Token),
		marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.MaxResults),
		merchants.NewResolver(cfg.Merchants.AllowedDomains),
	}

	catalogClient := catalog.NewClient(
		cfg.Catalog.GraphQLURL,
		cfg.Catalog.APIKey,
		cfg.Catalog.AuthMode,
		cfg.Catalog.ShopperIP,
	)
	scraper := scrape.NewScraper()
	summarizer := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	checkoutClient := checkout.NewClient(cfg.Checkout.BaseURL, cfg.Checkout.APIKey)

	if cfg.Storefront.URL == "" {
		logrus.Warn("Storefront API not configured, storefront search disabled")
	}
	if cfg.OpenAI.APIKey == "" {
		logrus.Warn("OpenAI not configured, generative fallbacks disabled")
	}

	// Initialize usecase layer
	searchService := usecase.NewSearchService(adapters, usecase.SearchConfig{})
	enrichService := usecase.NewEnrichService(
		catalogClient,
		scraper,
		summarizer,
		memoryCache,
		usecase.EnrichConfig{
			HighlightsEnabled:    cfg.OpenAI.HighlightsEnabled && cfg.OpenAI.APIKey != "",
			ReviewSummaryEnabled: cfg.OpenAI.ReviewSummaryEnabled && cfg.OpenAI.APIKey != "",
			CacheTTL:             cfg.Cache.TTL,
		},
	)
	checkoutService := usecase.NewCheckoutService(checkoutClient, enrichService, cfg.Checkout.PollTimeout)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, enrichService, checkoutService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logrus.Infof("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
