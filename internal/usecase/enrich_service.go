package usecase

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/paceline/backend/internal/domain"
	"github.com/paceline/backend/internal/infrastructure/cache"
	"github.com/sirupsen/logrus"
)

// Scrape fallback fires when the structured catalog left fewer reviews
// than this, or no highlights at all.
const minCatalogReviews = 3

// maxSummaryExcerpts bounds how much review text is handed to the
// review summarizer.
const maxSummaryExcerpts = 25

// EnrichConfig holds configuration for the enrichment pipeline
type EnrichConfig struct {
	HighlightsEnabled    bool
	ReviewSummaryEnabled bool
	CacheTTL             time.Duration
}

// EnrichService resolves full product detail through an ordered
// waterfall: structured catalog lookup, then a page scrape for the
// gaps, then generative fallbacks. Each stage only fills fields the
// previous stages left empty, and no stage failure reaches the caller.
type EnrichService struct {
	catalog    domain.CatalogClient
	scraper    domain.PageScraper
	summarizer domain.Summarizer
	cache      domain.CacheRepository
	config     EnrichConfig
	log        *logrus.Entry
}

// NewEnrichService creates a new enrichment pipeline with dependencies
func NewEnrichService(
	catalog domain.CatalogClient,
	scraper domain.PageScraper,
	summarizer domain.Summarizer,
	cacheRepo domain.CacheRepository,
	config EnrichConfig,
) *EnrichService {
	if config.CacheTTL == 0 {
		config.CacheTTL = 24 * time.Hour
	}

	return &EnrichService{
		catalog:    catalog,
		scraper:    scraper,
		summarizer: summarizer,
		cache:      cacheRepo,
		config:     config,
		log:        logrus.WithField("component", "enrich"),
	}
}

// Enrich resolves full detail for a product URL. It always returns a
// well-formed product: if every stage fails, the result carries a
// URL-derived title and a "Varies" price.
func (s *EnrichService) Enrich(ctx context.Context, productURL string) *domain.EnrichedProduct {
	cacheKey := cache.DayKey("enrich", productURL)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if product, ok := cached.(*domain.EnrichedProduct); ok {
			return product
		}
	}

	acc := newAccumulator()

	// Stage 1: structured catalog lookup
	catalogProduct, err := s.catalog.ProductByURL(ctx, productURL)
	if err != nil {
		s.log.WithField("url", productURL).WithError(err).Debug("catalog lookup produced nothing")
	} else {
		acc.applyCatalog(catalogProduct)
	}

	// Stage 2: page scrape, only for the gaps the catalog left
	if acc.needsScrape() {
		page, err := s.scraper.ScrapePDP(ctx, productURL)
		if err != nil {
			s.log.WithField("url", productURL).WithError(err).Debug("pdp scrape produced nothing")
		} else {
			acc.applyScrape(page)
		}
	}

	// Stage 3a: generative highlights, only if still empty
	if s.config.HighlightsEnabled && acc.needsHighlights() {
		if baseText := acc.highlightBaseText(); baseText != "" {
			bullets, err := s.summarizer.Highlights(ctx, baseText)
			if err != nil {
				s.log.WithField("url", productURL).WithError(err).Debug("highlight generation produced nothing")
			} else {
				acc.applyHighlights(bullets)
			}
		}
	}

	// Stage 3b: generative review digest, independently gated
	if s.config.ReviewSummaryEnabled && len(acc.product.Reviews) > 0 {
		digest, err := s.summarizer.SummarizeReviews(ctx, acc.reviewExcerpts(maxSummaryExcerpts))
		if err != nil {
			s.log.WithField("url", productURL).WithError(err).Debug("review summary produced nothing")
		} else {
			acc.applyDigest(digest)
		}
	}

	product := acc.finalize(productURL)

	if err := s.cache.Set(ctx, cacheKey, product, s.config.CacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache enriched product")
	}

	return product
}

var (
	slugSeparatorRegex = regexp.MustCompile(`[-_]+`)
	listingIDRegex     = regexp.MustCompile(`^[A-Za-z0-9]{8,12}$`)
)

// guessTitleFromURL derives a best-guess title from a product URL's
// path when no stage could resolve one.
func guessTitleFromURL(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return "Product"
	}

	path := u.Path
	if idx := strings.Index(path, "/ref="); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.Index(path, "/dp/"); idx > 0 {
		path = path[:idx]
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "Product"
	}

	last := segments[len(segments)-1]
	// Opaque listing IDs (ASIN-style) make terrible titles; prefer the
	// slug segment before them.
	if listingIDRegex.MatchString(last) && len(segments) >= 2 {
		return slugToTitle(segments[len(segments)-2])
	}

	return slugToTitle(last)
}

func slugToTitle(slug string) string {
	words := strings.Fields(slugSeparatorRegex.ReplaceAllString(slug, " "))
	if len(words) == 0 {
		return "Product"
	}

	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
