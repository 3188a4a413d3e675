package merchants

import (
	"context"
	"fmt"
	"net/url"

	"github.com/paceline/backend/internal/domain"
)

// Resolver turns a product query into candidate URLs on the allowed
// external merchant domains. It does not scrape: it emits deterministic
// domain-scoped search URLs the catalog API can resolve later.
// It implements domain.CatalogAdapter.
type Resolver struct {
	allowedDomains []string
}

// NewResolver creates a resolver over the configured merchant domains
func NewResolver(allowedDomains []string) *Resolver {
	return &Resolver{allowedDomains: allowedDomains}
}

// Name identifies this adapter in aggregator logs
func (r *Resolver) Name() string {
	return "merchants"
}

// Search returns one placeholder product per allowed domain, capped at
// limit. Placeholders carry enough for the enrichment pipeline to take
// over once the user picks one.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if len(r.allowedDomains) == 0 {
		return nil, nil
	}

	domains := r.allowedDomains
	if limit > 0 && limit < len(domains) {
		domains = domains[:limit]
	}

	products := make([]domain.Product, 0, len(domains))
	for _, d := range domains {
		products = append(products, domain.Product{
			SourceID:       d,
			Name:           "External product",
			Price:          "Varies",
			ImageURL:       "Image not available",
			URL:            fmt.Sprintf("https://%s/search?q=%s", d, url.QueryEscape(query)),
			MerchantDomain: d,
			Reason:         "Supported external merchant.",
		})
	}

	return products, nil
}
