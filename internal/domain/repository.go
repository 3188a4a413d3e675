package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CatalogAdapter queries one external product source. Adapters fail
// independently; the aggregator treats a failed adapter as empty.
type CatalogAdapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Product, error)
}

// CatalogClient resolves full structured product detail from a product
// URL via the external catalog API.
type CatalogClient interface {
	ProductByURL(ctx context.Context, url string) (*EnrichedProduct, error)
}

// ScrapedPage is what the PDP scrape fallback extracts from raw HTML.
type ScrapedPage struct {
	Reviews         []Review
	Highlights      []string
	MetaDescription string
}

// PageScraper fetches a product page and extracts review and highlight
// content directly from its HTML.
type PageScraper interface {
	ScrapePDP(ctx context.Context, url string) (*ScrapedPage, error)
}

// ReviewDigest is a generated summary of review excerpts.
type ReviewDigest struct {
	Summary   string
	Likes     []string
	Dislikes  []string
	Sentiment *SentimentBreakdown
}

// Summarizer produces generated highlight bullets and review digests.
// Implementations must return an error rather than unparseable output.
type Summarizer interface {
	Highlights(ctx context.Context, baseText string) ([]string, error)
	SummarizeReviews(ctx context.Context, excerpts []string) (*ReviewDigest, error)
}

// CheckoutProvider is the external payment/order provider behind the
// checkout intent lifecycle.
type CheckoutProvider interface {
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentSnapshot, error)
	ConfirmIntent(ctx context.Context, intentID, paymentToken string) (json.RawMessage, error)
	GetIntent(ctx context.Context, intentID string) (*IntentSnapshot, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
