package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	botUserAgent  = "Mozilla/5.0 (compatible; PacelineBot/1.0; +https://paceline.fit)"
	maxReviews    = 25
	maxHighlights = 6
)

// reviewContainerSelector matches the review widgets the common
// storefront review apps render into.
const reviewContainerSelector = ".loox-review, .yotpo-review, .jdgm-rev__body, .spr-review-content"

// highlightContainerSelector matches the description containers whose
// bullet lists read as product highlights.
const highlightContainerSelector = "#feature-bullets li, .product__description li, .product-description li, .rte li, .accordion li"

// Scraper fetches a product page and pulls review and highlight
// content straight from its HTML. It implements domain.PageScraper.
type Scraper struct {
	httpClient *http.Client
	log        *logrus.Entry
}

// NewScraper creates a new PDP scraper
func NewScraper() *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logrus.WithField("component", "scrape"),
	}
}

// ScrapePDP fetches the page and extracts structured reviews (JSON-LD
// first, review-app containers as fallback), highlight bullets, and
// the meta description.
func (s *Scraper) ScrapePDP(ctx context.Context, url string) (*domain.ScrapedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", botUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("page fetch error: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := &domain.ScrapedPage{
		Highlights:      extractHighlights(doc),
		MetaDescription: extractMetaDescription(doc),
	}

	page.Reviews = extractJSONLDReviews(doc)
	if len(page.Reviews) == 0 {
		page.Reviews = extractAppReviews(doc)
	}

	s.log.WithFields(logrus.Fields{
		"url":        url,
		"reviews":    len(page.Reviews),
		"highlights": len(page.Highlights),
	}).Debug("pdp scrape complete")

	return page, nil
}

// extractJSONLDReviews walks every ld+json block for review nodes.
func extractJSONLDReviews(doc *goquery.Document) []domain.Review {
	var reviews []domain.Review

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var block interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &block); err != nil {
			return
		}
		walkForReviews(block, &reviews)
	})

	out := reviews[:0]
	for _, r := range reviews {
		if r.Text != "" {
			out = append(out, r)
		}
		if len(out) >= maxReviews {
			break
		}
	}
	return out
}

// walkForReviews recursively collects "review" nodes from a JSON-LD tree.
func walkForReviews(node interface{}, reviews *[]domain.Review) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			walkForReviews(item, reviews)
		}
	case map[string]interface{}:
		if raw, ok := v["review"]; ok {
			switch r := raw.(type) {
			case []interface{}:
				for _, item := range r {
					appendReview(item, reviews)
				}
			default:
				appendReview(r, reviews)
			}
		}
		for _, child := range v {
			walkForReviews(child, reviews)
		}
	}
}

func appendReview(node interface{}, reviews *[]domain.Review) {
	m, ok := node.(map[string]interface{})
	if !ok {
		return
	}

	review := domain.Review{
		Title: firstString(m, "name", "headline"),
		Text:  firstString(m, "reviewBody", "description", "text"),
	}

	if rating, ok := m["reviewRating"].(map[string]interface{}); ok {
		review.Rating = stringify(firstValue(rating, "ratingValue", "value"))
	} else {
		review.Rating = stringify(m["rating"])
	}

	*reviews = append(*reviews, review)
}

// extractAppReviews pulls review text out of known review-widget
// containers and data attributes.
func extractAppReviews(doc *goquery.Document) []domain.Review {
	var reviews []domain.Review

	doc.Find("[data-review-content]").Each(func(_ int, sel *goquery.Selection) {
		if text, ok := sel.Attr("data-review-content"); ok {
			if t := normalizeSpace(text); len(t) > 20 {
				reviews = append(reviews, domain.Review{Text: t})
			}
		}
	})

	doc.Find(reviewContainerSelector).Each(func(_ int, sel *goquery.Selection) {
		if t := normalizeSpace(sel.Text()); len(t) > 20 {
			reviews = append(reviews, domain.Review{Text: t})
		}
	})

	if len(reviews) > maxReviews {
		reviews = reviews[:maxReviews]
	}
	return reviews
}

// extractHighlights collects bullet text from description containers,
// keeping bullets of sensible length and dropping duplicates.
func extractHighlights(doc *goquery.Document) []string {
	var bullets []string
	seen := make(map[string]bool)

	doc.Find(highlightContainerSelector).Each(func(_ int, sel *goquery.Selection) {
		t := normalizeSpace(sel.Text())
		if len(t) <= 8 || len(t) >= 180 {
			return
		}
		key := strings.ToLower(t)
		if seen[key] {
			return
		}
		seen[key] = true
		bullets = append(bullets, t)
	})

	if len(bullets) > maxHighlights {
		bullets = bullets[:maxHighlights]
	}
	return bullets
}

func extractMetaDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return normalizeSpace(content)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstValue(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
