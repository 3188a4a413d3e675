package domain

// SourceKind distinguishes the two catalog families we resolve products
// from. It changes how variants are presented: storefront variants are
// selectable attribute combinations, marketplace variants are distinct
// listings.
type SourceKind string

const (
	SourceStorefront  SourceKind = "storefront"
	SourceMarketplace SourceKind = "marketplace"
)

// Product is a search-result card produced by a catalog adapter.
// Identity key is the URL as returned by the adapter; adapters are
// responsible for returning canonical URLs.
type Product struct {
	SourceID       string `json:"sourceId"`
	Name           string `json:"name"`
	Price          string `json:"price"` // display string, e.g. "$129.99"
	ImageURL       string `json:"imageUrl"`
	URL            string `json:"url"`
	MerchantDomain string `json:"merchantDomain,omitempty"`
	Rating         string `json:"rating,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Review is a single product review excerpt, from structured markup or
// heuristic container matching.
type Review struct {
	Rating string `json:"rating,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// VariantOption is one (name, value) attribute pair on a variant,
// e.g. {Size, Medium}.
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is one purchasable variation of a product. For storefront
// products each variant is an attribute combination; for marketplace
// products each variant is a distinct listing.
type Variant struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Options      []VariantOption `json:"options"`
	Available    bool            `json:"available"`
	Price        string          `json:"price,omitempty"`
	CurrencyCode string          `json:"currencyCode,omitempty"`
	SourceKind   SourceKind      `json:"sourceKind"`
}

// SentimentBreakdown holds review sentiment percentages (0-100).
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// EnrichedProduct is the full detail view built by the enrichment
// waterfall. Fields are filled incrementally; a field populated by an
// earlier stage is never overwritten by a later one.
type EnrichedProduct struct {
	Brand         string              `json:"brand"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Images        []string            `json:"images"`
	Price         string              `json:"price"`
	CurrencyCode  string              `json:"currencyCode"`
	Variants      []Variant           `json:"variants"`
	Highlights    []string            `json:"highlights"`
	Reviews       []Review            `json:"reviews"`
	ReviewSummary string              `json:"reviewSummary,omitempty"`
	Likes         []string            `json:"likes"`
	Dislikes      []string            `json:"dislikes"`
	Sentiment     *SentimentBreakdown `json:"sentimentPct,omitempty"`
	SourceKind    SourceKind          `json:"sourceKind,omitempty"`
}

// SearchRequest is a product search request from the chat layer.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// EnrichRequest asks for full detail on a single product URL.
type EnrichRequest struct {
	URL string `json:"url" binding:"required"`
}
