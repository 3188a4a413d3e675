package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121 Safari/537.36"

// Client scrapes the marketplace's public search results page.
// It implements domain.CatalogAdapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxResults  int
	rateLimiter *rate.Limiter
	log         *logrus.Entry
}

// NewClient creates a new marketplace search client.
// Scraping is throttled to one search per second with a small burst so
// a chatty session does not trip bot detection.
func NewClient(baseURL string, maxResults int) *Client {
	if maxResults <= 0 {
		maxResults = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     baseURL,
		maxResults:  maxResults,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 3),
		log:         logrus.WithField("component", "marketplace"),
	}
}

// Name identifies this adapter in aggregator logs
func (c *Client) Name() string {
	return "marketplace"
}

// Search fetches and parses the marketplace search page for the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	searchURL := fmt.Sprintf("%s/s?k=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", desktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace error: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace page: %w", err)
	}

	max := c.maxResults
	if limit > 0 && limit < max {
		max = limit
	}

	products := ExtractSearchResults(doc, c.baseURL, max)
	c.log.WithFields(logrus.Fields{"query": query, "count": len(products)}).Debug("marketplace search complete")

	return products, nil
}
