package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paceline/backend/internal/domain"
	"github.com/paceline/backend/internal/usecase"
)

// SearchService aggregates product search across catalog sources.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) []domain.Product
}

// EnrichService resolves full product detail for a URL.
type EnrichService interface {
	Enrich(ctx context.Context, productURL string) *domain.EnrichedProduct
}

// CheckoutService drives the checkout intent lifecycle.
type CheckoutService interface {
	CreateIntent(ctx context.Context, req *domain.CreateIntentRequest) (*domain.IntentSnapshot, error)
	ConfirmIntent(ctx context.Context, req *domain.ConfirmIntentRequest) (json.RawMessage, error)
	GetIntent(ctx context.Context, intentID string) (*domain.IntentSnapshot, error)
	WatchIntent(ctx context.Context, intentID string) (*usecase.IntentEvent, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search   SearchService
	enrich   EnrichService
	checkout CheckoutService
}

// NewHandler creates a new HTTP handler
func NewHandler(search SearchService, enrich EnrichService, checkout CheckoutService) *Handler {
	return &Handler{
		search:   search,
		enrich:   enrich,
		checkout: checkout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "paceline-backend",
		"version": "1.0.0",
	})
}

// SearchProducts handles product search requests. Upstream trouble is
// never an error here: the response always carries a products array,
// plus a message when it is empty.
func (h *Handler) SearchProducts(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	products := h.search.Search(c.Request.Context(), req.Query, req.Limit)

	response := gin.H{"products": products}
	if len(products) == 0 {
		response["message"] = "No products matched your search."
	}
	c.JSON(http.StatusOK, response)
}

// EnrichProduct handles product enrichment requests
func (h *Handler) EnrichProduct(c *gin.Context) {
	var req domain.EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "url is required"})
		return
	}

	enriched := h.enrich.Enrich(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, gin.H{"ok": true, "enriched": enriched})
}

// CreateIntent opens a checkout intent with the provider and relays the
// provider's response verbatim.
func (h *Handler) CreateIntent(c *gin.Context) {
	var req domain.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snapshot, err := h.checkout.CreateIntent(c.Request.Context(), &req)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot.Raw)
}

// ConfirmIntent submits a payment token for an existing intent.
func (h *Handler) ConfirmIntent(c *gin.Context) {
	var req domain.ConfirmIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	raw, err := h.checkout.ConfirmIntent(c.Request.Context(), &req)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// GetIntent returns the current snapshot of an intent. Clients poll
// this endpoint while an order is in flight.
func (h *Handler) GetIntent(c *gin.Context) {
	intentID := c.Query("checkoutIntentId")

	snapshot, err := h.checkout.GetIntent(c.Request.Context(), intentID)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot.Raw)
}

// WatchIntent long-polls an intent until it produces an event: an offer
// becoming ready, completion, or failure. The request blocks until the
// event, the client disconnecting, or the poll budget running out.
func (h *Handler) WatchIntent(c *gin.Context) {
	intentID := c.Query("checkoutIntentId")

	event, err := h.checkout.WatchIntent(c.Request.Context(), intentID)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":  event.Kind,
		"intent": event.Snapshot.Raw,
	})
}

// writeCheckoutError maps checkout errors onto HTTP responses. Provider
// failures keep their upstream status and body so the client can see
// what the provider actually said.
func writeCheckoutError(c *gin.Context, err error) {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "checkout provider request failed",
			"upstreamStatus": provErr.Status,
			"upstreamBody":   provErr.Body,
		})
		return
	}

	if errors.Is(err, domain.ErrMissingBuyerField) || errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrNoVariantMatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errors.Is(err, domain.ErrPollTimeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout request failed"})
}
