package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paceline/backend/internal/domain"
)

const (
	// offerPollInterval paces polls while the provider prepares an offer.
	offerPollInterval = 2 * time.Second
	// processingPollInterval paces polls while an order is being placed.
	processingPollInterval = 1 * time.Second
)

// Clock abstracts time for the intent watcher so tests drive the poll
// loop without real timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// IntentEventKind labels the outcome of watching a checkout intent.
type IntentEventKind string

const (
	EventOfferReady IntentEventKind = "offer_ready"
	EventCompleted  IntentEventKind = "completed"
	EventFailed     IntentEventKind = "failed"
)

// IntentEvent is the single notification WatchIntent produces.
type IntentEvent struct {
	Kind     IntentEventKind
	Snapshot *domain.IntentSnapshot
}

// VariantSource resolves the variant list for a product URL, so a
// selected-options request can be pinned to a concrete variant before
// it reaches the provider.
type VariantSource interface {
	Enrich(ctx context.Context, productURL string) *domain.EnrichedProduct
}

// CheckoutService validates checkout requests and drives the intent
// lifecycle against the provider.
type CheckoutService struct {
	provider    domain.CheckoutProvider
	variants    VariantSource
	clock       Clock
	pollTimeout time.Duration
	log         *logrus.Entry
}

func NewCheckoutService(provider domain.CheckoutProvider, variants VariantSource, pollTimeout time.Duration) *CheckoutService {
	return &CheckoutService{
		provider:    provider,
		variants:    variants,
		clock:       systemClock{},
		pollTimeout: pollTimeout,
		log:         logrus.WithField("component", "checkout_service"),
	}
}

// WithClock swaps the clock, for tests.
func (s *CheckoutService) WithClock(clock Clock) *CheckoutService {
	s.clock = clock
	return s
}

// requiredBuyerFields lists buyer fields in the order they are
// validated, so error messages are deterministic.
var requiredBuyerFields = []struct {
	name string
	get  func(*domain.Buyer) string
}{
	{"firstName", func(b *domain.Buyer) string { return b.FirstName }},
	{"lastName", func(b *domain.Buyer) string { return b.LastName }},
	{"email", func(b *domain.Buyer) string { return b.Email }},
	{"phone", func(b *domain.Buyer) string { return b.Phone }},
	{"address1", func(b *domain.Buyer) string { return b.Address1 }},
	{"city", func(b *domain.Buyer) string { return b.City }},
	{"province", func(b *domain.Buyer) string { return b.Province }},
	{"country", func(b *domain.Buyer) string { return b.Country }},
	{"postalCode", func(b *domain.Buyer) string { return b.PostalCode }},
}

func validateCreateIntent(req *domain.CreateIntentRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", domain.ErrInvalidRequest)
	}
	if req.ProductURL == "" {
		return fmt.Errorf("%w: productUrl is required", domain.ErrInvalidRequest)
	}
	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidRequest)
	}
	for _, field := range requiredBuyerFields {
		if field.get(&req.Buyer) == "" {
			return fmt.Errorf("%w: %s", domain.ErrMissingBuyerField, field.name)
		}
	}
	return nil
}

// CreateIntent validates the request locally, resolves selected
// options to a concrete variant when no variant id was given, then
// asks the provider to open a checkout intent. Validation failures
// never reach the provider.
func (s *CheckoutService) CreateIntent(ctx context.Context, req *domain.CreateIntentRequest) (*domain.IntentSnapshot, error) {
	if err := validateCreateIntent(req); err != nil {
		return nil, err
	}

	if req.VariantID == "" && len(req.SelectedOptions) > 0 {
		variantID, err := s.resolveVariant(ctx, req)
		if err != nil {
			return nil, err
		}
		req.VariantID = variantID
	}

	snapshot, err := s.provider.CreateIntent(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"intent_id": snapshot.Intent.ID,
		"state":     snapshot.Intent.State,
	}).Info("Checkout intent created")
	return snapshot, nil
}

// resolveVariant pins the buyer's selected options to a variant id by
// enriching the product and matching against its variant list. An
// option name the product does not carry at all fails fast, before the
// full match runs.
func (s *CheckoutService) resolveVariant(ctx context.Context, req *domain.CreateIntentRequest) (string, error) {
	product := s.variants.Enrich(ctx, req.ProductURL)

	groups := BuildOptionGroups(product.Variants)
	selection := make(map[string]string, len(req.SelectedOptions))
	for _, opt := range req.SelectedOptions {
		if !optionNameKnown(groups, opt.Name) {
			return "", fmt.Errorf("%w: product has no option %q", domain.ErrNoVariantMatch, opt.Name)
		}
		selection[opt.Name] = opt.Value
	}

	match := MatchVariant(product.Variants, selection)
	if match == nil {
		return "", domain.ErrNoVariantMatch
	}

	s.log.WithFields(logrus.Fields{
		"url":        req.ProductURL,
		"variant_id": match.ID,
	}).Debug("Resolved selected options to a variant")
	return match.ID, nil
}

func optionNameKnown(groups map[string][]string, name string) bool {
	for known := range groups {
		if strings.EqualFold(known, name) {
			return true
		}
	}
	return false
}

// ConfirmIntent submits the buyer's payment token for an intent.
func (s *CheckoutService) ConfirmIntent(ctx context.Context, req *domain.ConfirmIntentRequest) (json.RawMessage, error) {
	if req == nil || req.CheckoutIntentID == "" {
		return nil, fmt.Errorf("%w: checkoutIntentId is required", domain.ErrInvalidRequest)
	}
	if req.PaymentToken == "" {
		return nil, fmt.Errorf("%w: paymentToken is required", domain.ErrInvalidRequest)
	}
	return s.provider.ConfirmIntent(ctx, req.CheckoutIntentID, req.PaymentToken)
}

// GetIntent fetches the current snapshot of an intent.
func (s *CheckoutService) GetIntent(ctx context.Context, intentID string) (*domain.IntentSnapshot, error) {
	if intentID == "" {
		return nil, fmt.Errorf("%w: checkoutIntentId is required", domain.ErrInvalidRequest)
	}
	return s.provider.GetIntent(ctx, intentID)
}

// WatchIntent polls the provider until the intent reaches a state worth
// reporting and returns exactly one event: offer_ready once an
// awaiting intent carries an offer, or completed/failed on a terminal
// state. Awaiting and unknown states are re-polled after
// offerPollInterval, placing_order after processingPollInterval. The
// watch gives up with ErrPollTimeout when the poll budget is spent.
func (s *CheckoutService) WatchIntent(ctx context.Context, intentID string) (*IntentEvent, error) {
	if intentID == "" {
		return nil, fmt.Errorf("%w: checkoutIntentId is required", domain.ErrInvalidRequest)
	}

	deadline := s.clock.Now().Add(s.pollTimeout)
	for {
		snapshot, err := s.provider.GetIntent(ctx, intentID)
		if err != nil {
			return nil, err
		}

		delay := offerPollInterval
		switch snapshot.Intent.State {
		case domain.IntentCompleted:
			return &IntentEvent{Kind: EventCompleted, Snapshot: snapshot}, nil
		case domain.IntentFailed:
			return &IntentEvent{Kind: EventFailed, Snapshot: snapshot}, nil
		case domain.IntentAwaitingConfirmation:
			if snapshot.Intent.HasOffer() {
				return &IntentEvent{Kind: EventOfferReady, Snapshot: snapshot}, nil
			}
		case domain.IntentPlacingOrder:
			delay = processingPollInterval
		default:
			s.log.WithFields(logrus.Fields{
				"intent_id": intentID,
				"state":     snapshot.Intent.State,
			}).Warn("Unknown intent state, continuing to poll")
		}

		if s.clock.Now().Add(delay).After(deadline) {
			return nil, fmt.Errorf("%w: intent %s still %s", domain.ErrPollTimeout, intentID, snapshot.Intent.State)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clock.After(delay):
		}
	}
}
