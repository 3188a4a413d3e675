package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paceline/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client talks to the external checkout provider's REST API.
// It implements domain.CheckoutProvider. Success bodies are returned
// verbatim; non-2xx responses become domain.ProviderError so callers
// can surface the upstream status and body.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	log         *logrus.Entry
}

// NewClient creates a new checkout provider client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		log:         logrus.WithField("component", "checkout"),
	}
}

// CreateIntent submits a new checkout intent. An idempotency key
// protects against double submission on retried requests.
func (c *Client) CreateIntent(ctx context.Context, req *domain.CreateIntentRequest) (*domain.IntentSnapshot, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	body, err := c.do(ctx, http.MethodPost, "/v2/checkout-intents", payload, headers)
	if err != nil {
		return nil, err
	}

	return parseSnapshot(body)
}

// ConfirmIntent submits the payment token for an intent with an offer.
func (c *Client) ConfirmIntent(ctx context.Context, intentID, paymentToken string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"paymentToken": paymentToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal confirm request: %w", err)
	}

	path := fmt.Sprintf("/v2/checkout-intents/%s/confirm", intentID)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// GetIntent fetches the current intent snapshot.
func (c *Client) GetIntent(ctx context.Context, intentID string) (*domain.IntentSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/v2/checkout-intents/"+intentID, nil, nil)
	if err != nil {
		return nil, err
	}

	return parseSnapshot(body)
}

// do executes one provider request. Non-2xx responses are returned as
// *domain.ProviderError carrying the upstream status and body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, headers map[string]string) (json.RawMessage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "path": path}).Warn("checkout provider error")
		return nil, &domain.ProviderError{Status: resp.StatusCode, Body: string(body)}
	}

	return json.RawMessage(body), nil
}

// parseSnapshot extracts the intent id, state, and offer presence while
// preserving the provider's verbatim body.
func parseSnapshot(body json.RawMessage) (*domain.IntentSnapshot, error) {
	var intent domain.CheckoutIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("malformed provider intent: %w", err)
	}

	return &domain.IntentSnapshot{Intent: intent, Raw: body}, nil
}
