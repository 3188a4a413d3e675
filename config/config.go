package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Storefront  StorefrontConfig
	Marketplace MarketplaceConfig
	Merchants   MerchantsConfig
	Catalog     CatalogConfig
	OpenAI      OpenAIConfig
	Checkout    CheckoutConfig
	Cache       CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorefrontConfig holds the Shopify storefront API configuration
type StorefrontConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// MarketplaceConfig holds the marketplace search scrape configuration
type MarketplaceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// MerchantsConfig lists the external merchant domains we are allowed
// to resolve product URLs on
type MerchantsConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

// CatalogConfig holds the structured catalog (GraphQL) API configuration
type CatalogConfig struct {
	GraphQLURL string `mapstructure:"graphql_url"`
	APIKey     string `mapstructure:"api_key"`
	AuthMode   string `mapstructure:"auth_mode"` // "basic" or "bearer"
	ShopperIP  string `mapstructure:"shopper_ip"`
}

// OpenAIConfig holds the generative fallback configuration
type OpenAIConfig struct {
	APIKey               string `mapstructure:"api_key"`
	Model                string `mapstructure:"model"`
	HighlightsEnabled    bool   `mapstructure:"highlights_enabled"`
	ReviewSummaryEnabled bool   `mapstructure:"review_summary_enabled"`
}

// CheckoutConfig holds the checkout provider configuration
type CheckoutConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paceline/")

	// Environment variable settings. Nested keys map dots to
	// underscores, so checkout.base_url reads PACELINE_CHECKOUT_BASE_URL.
	v.SetEnvPrefix("PACELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Marketplace defaults
	v.SetDefault("marketplace.base_url", "https://www.amazon.com")
	v.SetDefault("marketplace.max_results", 5)

	// Merchant defaults: external merchants the catalog API supports
	v.SetDefault("merchants.allowed_domains", []string{
		"nike.com", "lululemon.com", "rei.com", "whoop.com", "therabody.com",
	})

	// Catalog defaults
	v.SetDefault("catalog.graphql_url", "https://staging.graphql.api.rye.com/v1/query")
	v.SetDefault("catalog.auth_mode", "basic")

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.highlights_enabled", false)
	v.SetDefault("openai.review_summary_enabled", false)

	// Checkout defaults
	v.SetDefault("checkout.poll_timeout", "3m")

	// Cache defaults: enrichment results are only good for the day
	v.SetDefault("cache.ttl", "24h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Checkout.BaseURL == "" {
		return fmt.Errorf("checkout base URL is required (set PACELINE_CHECKOUT_BASE_URL)")
	}

	if config.Checkout.APIKey == "" {
		return fmt.Errorf("checkout API key is required (set PACELINE_CHECKOUT_API_KEY)")
	}

	if config.Catalog.AuthMode != "basic" && config.Catalog.AuthMode != "bearer" {
		return fmt.Errorf("catalog auth mode must be 'basic' or 'bearer', got: %s", config.Catalog.AuthMode)
	}

	if config.Checkout.PollTimeout <= 0 {
		return fmt.Errorf("checkout poll timeout must be positive, got: %s", config.Checkout.PollTimeout)
	}

	return nil
}
