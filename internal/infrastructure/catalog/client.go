package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const requestProductMutation = `
mutation RequestProductByURL($input: RequestProductByURLInput!) {
  requestProductByURL(input: $input) {
    product {
      id
      title
      url
    }
  }
}`

const productByIDQuery = `
query ProductByID($id: ID!, $marketplace: Marketplace!) {
  productByID(id: $id, marketplace: $marketplace) {
    id
    marketplace
    title
    description
    vendor
    images { url }
    price { displayValue currency }
    variants {
      id
      title
      option1
      option2
      option3
      selectedOptions { name value }
      available
      price { displayValue currency }
    }
  }
}`

// Client resolves full structured product detail through the external
// catalog GraphQL API. It implements domain.CatalogClient.
type Client struct {
	httpClient *http.Client
	graphqlURL string
	apiKey     string
	authMode   string
	shopperIP  string
	log        *logrus.Entry
}

// NewClient creates a new catalog API client
func NewClient(graphqlURL, apiKey, authMode, shopperIP string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		graphqlURL: graphqlURL,
		apiKey:     apiKey,
		authMode:   strings.ToLower(authMode),
		shopperIP:  shopperIP,
		log:        logrus.WithField("component", "catalog"),
	}
}

// ProductByURL resolves a product URL to full structured detail in two
// steps: request a catalog-native product ID for the URL, then fetch
// the full record by that ID.
func (c *Client) ProductByURL(ctx context.Context, productURL string) (*domain.EnrichedProduct, error) {
	cleanURL := CleanProductURL(productURL)
	marketplace := ClassifyMarketplace(cleanURL)

	c.log.WithFields(logrus.Fields{"url": cleanURL, "marketplace": marketplace}).Debug("requesting product by URL")

	var requested struct {
		RequestProductByURL struct {
			Product *struct {
				ID string `json:"id"`
			} `json:"product"`
		} `json:"requestProductByURL"`
	}

	input := map[string]interface{}{
		"input": map[string]string{"url": cleanURL, "marketplace": marketplace},
	}
	if err := c.query(ctx, requestProductMutation, input, &requested); err != nil {
		return nil, err
	}

	if requested.RequestProductByURL.Product == nil || requested.RequestProductByURL.Product.ID == "" {
		return nil, domain.ErrNoProductMatch
	}

	var fetched struct {
		ProductByID *rawProduct `json:"productByID"`
	}
	variables := map[string]interface{}{
		"id":          requested.RequestProductByURL.Product.ID,
		"marketplace": marketplace,
	}
	if err := c.query(ctx, productByIDQuery, variables, &fetched); err != nil {
		return nil, err
	}
	if fetched.ProductByID == nil {
		return nil, domain.ErrNoProductMatch
	}

	return NormalizeProduct(fetched.ProductByID), nil
}

// query posts a GraphQL document and decodes the data payload into out.
func (c *Client) query(ctx context.Context, doc string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     doc,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorizationHeader())
	if c.shopperIP != "" {
		req.Header.Set("Rye-Shopper-IP", c.shopperIP)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("non-JSON catalog response (%d): %s", resp.StatusCode, truncate(string(body), 800))
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("catalog GraphQL errors: %s", strings.Join(messages, " | "))
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode catalog data: %w", err)
	}

	return nil
}

func (c *Client) authorizationHeader() string {
	if c.authMode == "bearer" {
		return "Bearer " + c.apiKey
	}
	return "Basic " + c.apiKey
}

// CleanProductURL strips query parameters and tracking suffixes so the
// catalog sees a canonical product URL. Marketplace URLs additionally
// lose their /ref= path segment and gain a trailing slash, which the
// catalog's URL resolver expects.
func CleanProductURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	path := u.Path
	if strings.Contains(strings.ToLower(u.Hostname()), "amazon") {
		if idx := strings.Index(path, "/ref="); idx > 0 {
			path = path[:idx]
		}
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
	}

	return u.Scheme + "://" + u.Host + path
}

// ClassifyMarketplace maps a product URL's hostname to the catalog's
// marketplace enum.
func ClassifyMarketplace(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return "SHOPIFY"
	}

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "amazon.") || strings.Contains(host, "amzn.") {
		return "AMAZON"
	}
	return "SHOPIFY"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
