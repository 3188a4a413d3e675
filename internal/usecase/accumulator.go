package usecase

import (
	"strings"

	"github.com/paceline/backend/internal/domain"
)

// accumulator builds an EnrichedProduct across waterfall stages. Every
// field carries a resolved bit set on first fill; once a stage has
// resolved a field, later stages cannot overwrite it, which makes the
// waterfall's monotonicity explicit instead of a scatter of nil checks.
type accumulator struct {
	product  domain.EnrichedProduct
	resolved map[string]bool
}

func newAccumulator() *accumulator {
	return &accumulator{resolved: make(map[string]bool)}
}

func (a *accumulator) fillString(field string, dst *string, value string) {
	if value == "" || a.resolved[field] {
		return
	}
	*dst = value
	a.resolved[field] = true
}

func (a *accumulator) fillStrings(field string, dst *[]string, values []string) {
	if len(values) == 0 || a.resolved[field] {
		return
	}
	*dst = values
	a.resolved[field] = true
}

// applyCatalog merges the structured catalog result, the highest-trust
// stage.
func (a *accumulator) applyCatalog(p *domain.EnrichedProduct) {
	if p == nil {
		return
	}

	a.fillString("brand", &a.product.Brand, p.Brand)
	a.fillString("title", &a.product.Title, p.Title)
	a.fillString("description", &a.product.Description, p.Description)
	a.fillString("price", &a.product.Price, p.Price)
	a.fillString("currency", &a.product.CurrencyCode, p.CurrencyCode)
	a.fillStrings("images", &a.product.Images, p.Images)
	a.fillStrings("highlights", &a.product.Highlights, p.Highlights)

	if len(p.Variants) > 0 && !a.resolved["variants"] {
		a.product.Variants = p.Variants
		a.resolved["variants"] = true
	}
	if len(p.Reviews) > 0 && !a.resolved["reviews"] {
		a.product.Reviews = p.Reviews
		a.resolved["reviews"] = true
	}
	if p.SourceKind != "" {
		a.product.SourceKind = p.SourceKind
	}
}

// needsScrape reports whether the catalog stage left gaps the page
// scrape should try to fill.
func (a *accumulator) needsScrape() bool {
	return len(a.product.Reviews) < minCatalogReviews || len(a.product.Highlights) == 0
}

// applyScrape merges page-scrape output into the remaining gaps.
func (a *accumulator) applyScrape(page *domain.ScrapedPage) {
	if page == nil {
		return
	}

	if len(a.product.Reviews) < minCatalogReviews && len(page.Reviews) > 0 {
		a.product.Reviews = page.Reviews
		a.resolved["reviews"] = true
	}
	a.fillStrings("highlights", &a.product.Highlights, page.Highlights)
	a.fillString("description", &a.product.Description, page.MetaDescription)
}

func (a *accumulator) needsHighlights() bool {
	return len(a.product.Highlights) == 0
}

func (a *accumulator) applyHighlights(bullets []string) {
	a.fillStrings("highlights", &a.product.Highlights, bullets)
}

func (a *accumulator) applyDigest(digest *domain.ReviewDigest) {
	if digest == nil {
		return
	}

	a.fillString("reviewSummary", &a.product.ReviewSummary, digest.Summary)
	a.fillStrings("likes", &a.product.Likes, digest.Likes)
	a.fillStrings("dislikes", &a.product.Dislikes, digest.Dislikes)
	if digest.Sentiment != nil && !a.resolved["sentiment"] {
		a.product.Sentiment = digest.Sentiment
		a.resolved["sentiment"] = true
	}
}

// highlightBaseText assembles the text the highlight generator works
// from: title, description, and up to ten review excerpts.
func (a *accumulator) highlightBaseText() string {
	parts := make([]string, 0, 12)
	if a.product.Title != "" {
		parts = append(parts, a.product.Title)
	}
	if a.product.Description != "" {
		parts = append(parts, a.product.Description)
	}
	for i, r := range a.product.Reviews {
		if i == 10 {
			break
		}
		if r.Text != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// reviewExcerpts returns up to max review texts for summarization.
func (a *accumulator) reviewExcerpts(max int) []string {
	excerpts := make([]string, 0, max)
	for _, r := range a.product.Reviews {
		if r.Text == "" {
			continue
		}
		excerpts = append(excerpts, r.Text)
		if len(excerpts) == max {
			break
		}
	}
	return excerpts
}

// finalize guarantees a well-formed product even when every stage
// failed: a URL-derived title, a "Varies" price, and non-nil slices.
func (a *accumulator) finalize(productURL string) *domain.EnrichedProduct {
	product := a.product

	if product.Title == "" {
		product.Title = guessTitleFromURL(productURL)
	}
	if product.Price == "" {
		product.Price = "Varies"
	}
	if product.CurrencyCode == "" {
		product.CurrencyCode = "USD"
	}

	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Variants == nil {
		product.Variants = []domain.Variant{}
	}
	if product.Highlights == nil {
		product.Highlights = []string{}
	}
	if product.Reviews == nil {
		product.Reviews = []domain.Review{}
	}
	if product.Likes == nil {
		product.Likes = []string{}
	}
	if product.Dislikes == nil {
		product.Dislikes = []string{}
	}

	return &product
}
