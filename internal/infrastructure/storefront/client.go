package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const searchQuery = `
query SearchProducts($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        onlineStoreUrl
        featuredImage { url }
        priceRange {
          minVariantPrice { amount currencyCode }
        }
      }
    }
  }
}`

// Client searches the Paceline storefront via the Shopify Storefront
// GraphQL API. It implements domain.CatalogAdapter.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	log        *logrus.Entry
}

// NewClient creates a new storefront search client
func NewClient(url, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:   url,
		token: token,
		log:   logrus.WithField("component", "storefront"),
	}
}

// Name identifies this adapter in aggregator logs
func (c *Client) Name() string {
	return "storefront"
}

type searchResponse struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID             string `json:"id"`
					Title          string `json:"title"`
					OnlineStoreURL string `json:"onlineStoreUrl"`
					FeaturedImage  *struct {
						URL string `json:"url"`
					} `json:"featuredImage"`
					PriceRange struct {
						MinVariantPrice struct {
							Amount       string `json:"amount"`
							CurrencyCode string `json:"currencyCode"`
						} `json:"minVariantPrice"`
					} `json:"priceRange"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search queries the storefront for products matching the query.
// A missing configuration is a degraded deployment, not an error: it
// returns no results so the other adapters still serve the search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if c.url == "" || c.token == "" {
		c.log.Warn("storefront URL or token not configured, returning no results")
		return nil, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query": searchQuery,
		"variables": map[string]interface{}{
			"query": query,
			"first": limit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal storefront query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storefront error %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode storefront response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("storefront GraphQL error: %s", parsed.Errors[0].Message)
	}

	products := make([]domain.Product, 0, len(parsed.Data.Products.Edges))
	for _, edge := range parsed.Data.Products.Edges {
		node := edge.Node

		product := domain.Product{
			SourceID: node.ID,
			Name:     node.Title,
			Price:    formatAmount(node.PriceRange.MinVariantPrice.Amount, node.PriceRange.MinVariantPrice.CurrencyCode),
			ImageURL: "Image not found",
			URL:      node.OnlineStoreURL,
			Rating:   "Rating not available",
		}
		if node.FeaturedImage != nil && node.FeaturedImage.URL != "" {
			product.ImageURL = node.FeaturedImage.URL
		}
		if product.URL == "" {
			// Products not published to the online store have no URL
			// and cannot be deduplicated or enriched; skip them.
			continue
		}

		products = append(products, product)
	}

	c.log.WithFields(logrus.Fields{"query": query, "count": len(products)}).Debug("storefront search complete")
	return products, nil
}

// formatAmount renders a storefront decimal amount as a display price.
func formatAmount(amount, currencyCode string) string {
	if amount == "" {
		return "Price not available"
	}
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "Price not available"
	}
	if currencyCode == "" || currencyCode == "USD" {
		return fmt.Sprintf("$%.2f", value)
	}
	return fmt.Sprintf("%.2f %s", value, currencyCode)
}
