package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paceline/backend/internal/domain"
)

// MockCheckoutProvider is a mock implementation of domain.CheckoutProvider
type MockCheckoutProvider struct {
	createSnapshot *domain.IntentSnapshot
	createErr      error
	createCalls    int

	confirmRaw   json.RawMessage
	confirmErr   error
	confirmCalls int

	// snapshots are returned by GetIntent in order; the last one
	// repeats once the script runs out.
	snapshots []*domain.IntentSnapshot
	getErr    error
	getCalls  int
}

func (m *MockCheckoutProvider) CreateIntent(ctx context.Context, req *domain.CreateIntentRequest) (*domain.IntentSnapshot, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createSnapshot, nil
}

func (m *MockCheckoutProvider) ConfirmIntent(ctx context.Context, intentID, paymentToken string) (json.RawMessage, error) {
	m.confirmCalls++
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return m.confirmRaw, nil
}

func (m *MockCheckoutProvider) GetIntent(ctx context.Context, intentID string) (*domain.IntentSnapshot, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	idx := m.getCalls - 1
	if idx >= len(m.snapshots) {
		idx = len(m.snapshots) - 1
	}
	return m.snapshots[idx], nil
}

// fakeClock advances its own time whenever After is asked for a delay,
// so poll loops run instantly while still observing intervals.
type fakeClock struct {
	now    time.Time
	delays []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// stuckClock never fires, for cancellation tests.
type stuckClock struct{}

func (stuckClock) Now() time.Time                         { return time.Time{} }
func (stuckClock) After(d time.Duration) <-chan time.Time { return make(chan time.Time) }

func validCreateRequest() *domain.CreateIntentRequest {
	return &domain.CreateIntentRequest{
		Buyer: domain.Buyer{
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Email:      "ada@example.com",
			Phone:      "5551234567",
			Address1:   "1 Analytical Way",
			City:       "London",
			Province:   "LDN",
			Country:    "GB",
			PostalCode: "SW1A 1AA",
		},
		ProductURL: "https://shop.example.com/products/trail-hoodie",
		Quantity:   1,
	}
}

func snapshotInState(state domain.IntentState, offer json.RawMessage) *domain.IntentSnapshot {
	return &domain.IntentSnapshot{
		Intent: domain.CheckoutIntent{ID: "ci_1", State: state, Offer: offer},
		Raw:    json.RawMessage(`{"id":"ci_1"}`),
	}
}

func TestCreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("valid request reaches the provider", func(t *testing.T) {
		provider := &MockCheckoutProvider{
			createSnapshot: snapshotInState(domain.IntentAwaitingConfirmation, nil),
		}
		svc := NewCheckoutService(provider, nil, time.Minute)

		snapshot, err := svc.CreateIntent(ctx, validCreateRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot.Intent.ID != "ci_1" {
			t.Errorf("ID = %q, want ci_1", snapshot.Intent.ID)
		}
		if provider.createCalls != 1 {
			t.Errorf("createCalls = %d, want 1", provider.createCalls)
		}
	})

	t.Run("missing buyer field names the field and never calls upstream", func(t *testing.T) {
		provider := &MockCheckoutProvider{}
		svc := NewCheckoutService(provider, nil, time.Minute)

		req := validCreateRequest()
		req.Buyer.PostalCode = ""

		_, err := svc.CreateIntent(ctx, req)
		if !errors.Is(err, domain.ErrMissingBuyerField) {
			t.Fatalf("error = %v, want ErrMissingBuyerField", err)
		}
		if !strings.Contains(err.Error(), "postalCode") {
			t.Errorf("error = %q, should name postalCode", err.Error())
		}
		if provider.createCalls != 0 {
			t.Errorf("createCalls = %d, want 0", provider.createCalls)
		}
	})

	t.Run("buyer fields are checked in declaration order", func(t *testing.T) {
		provider := &MockCheckoutProvider{}
		svc := NewCheckoutService(provider, nil, time.Minute)

		req := validCreateRequest()
		req.Buyer.Email = ""
		req.Buyer.PostalCode = ""

		_, err := svc.CreateIntent(ctx, req)
		if err == nil || !strings.Contains(err.Error(), "email") {
			t.Errorf("error = %v, should name email first", err)
		}
	})

	t.Run("missing product url is rejected", func(t *testing.T) {
		svc := NewCheckoutService(&MockCheckoutProvider{}, nil, time.Minute)
		req := validCreateRequest()
		req.ProductURL = ""

		_, err := svc.CreateIntent(ctx, req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		svc := NewCheckoutService(&MockCheckoutProvider{}, nil, time.Minute)
		req := validCreateRequest()
		req.Quantity = 0

		_, err := svc.CreateIntent(ctx, req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

// stubVariantSource is a stub implementation of VariantSource
type stubVariantSource struct {
	product *domain.EnrichedProduct
	calls   int
}

func (s *stubVariantSource) Enrich(ctx context.Context, productURL string) *domain.EnrichedProduct {
	s.calls++
	return s.product
}

func TestCreateIntentVariantResolution(t *testing.T) {
	ctx := context.Background()

	variants := &stubVariantSource{product: &domain.EnrichedProduct{
		Variants: variantFixture(),
	}}

	newService := func(provider *MockCheckoutProvider) *CheckoutService {
		return NewCheckoutService(provider, variants, time.Minute)
	}

	t.Run("selected options resolve to a variant id", func(t *testing.T) {
		provider := &MockCheckoutProvider{
			createSnapshot: snapshotInState(domain.IntentAwaitingConfirmation, nil),
		}
		svc := newService(provider)

		req := validCreateRequest()
		req.SelectedOptions = []domain.VariantOption{
			{Name: "Size", Value: "Small"},
			{Name: "Color", Value: "Sage"},
		}

		_, err := svc.CreateIntent(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.VariantID != "v2" {
			t.Errorf("VariantID = %q, want v2", req.VariantID)
		}
	})

	t.Run("an explicit variant id skips resolution", func(t *testing.T) {
		provider := &MockCheckoutProvider{
			createSnapshot: snapshotInState(domain.IntentAwaitingConfirmation, nil),
		}
		svc := newService(provider)

		before := variants.calls
		req := validCreateRequest()
		req.VariantID = "v9"
		req.SelectedOptions = []domain.VariantOption{{Name: "Size", Value: "Small"}}

		if _, err := svc.CreateIntent(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if variants.calls != before {
			t.Error("variant source should not be consulted when an id is given")
		}
		if req.VariantID != "v9" {
			t.Errorf("VariantID = %q, want v9 untouched", req.VariantID)
		}
	})

	t.Run("an unknown option name fails before the provider is called", func(t *testing.T) {
		provider := &MockCheckoutProvider{}
		svc := newService(provider)

		req := validCreateRequest()
		req.SelectedOptions = []domain.VariantOption{{Name: "Material", Value: "Wool"}}

		_, err := svc.CreateIntent(ctx, req)
		if !errors.Is(err, domain.ErrNoVariantMatch) {
			t.Fatalf("error = %v, want ErrNoVariantMatch", err)
		}
		if !strings.Contains(err.Error(), "Material") {
			t.Errorf("error = %q, should name the unknown option", err.Error())
		}
		if provider.createCalls != 0 {
			t.Errorf("createCalls = %d, want 0", provider.createCalls)
		}
	})

	t.Run("an unsatisfiable combination is rejected", func(t *testing.T) {
		provider := &MockCheckoutProvider{}
		svc := newService(provider)

		req := validCreateRequest()
		req.SelectedOptions = []domain.VariantOption{
			{Name: "Size", Value: "Medium"},
			{Name: "Color", Value: "Sage"},
		}

		_, err := svc.CreateIntent(ctx, req)
		if !errors.Is(err, domain.ErrNoVariantMatch) {
			t.Errorf("error = %v, want ErrNoVariantMatch", err)
		}
	})
}

func TestConfirmIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("passes token through to the provider", func(t *testing.T) {
		provider := &MockCheckoutProvider{confirmRaw: json.RawMessage(`{"state":"placing_order"}`)}
		svc := NewCheckoutService(provider, nil, time.Minute)

		raw, err := svc.ConfirmIntent(ctx, &domain.ConfirmIntentRequest{
			CheckoutIntentID: "ci_1",
			PaymentToken:     "tok_visa",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"state":"placing_order"}` {
			t.Errorf("raw = %s", raw)
		}
	})

	t.Run("missing intent id is rejected", func(t *testing.T) {
		svc := NewCheckoutService(&MockCheckoutProvider{}, nil, time.Minute)
		_, err := svc.ConfirmIntent(ctx, &domain.ConfirmIntentRequest{PaymentToken: "tok"})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("missing payment token is rejected", func(t *testing.T) {
		provider := &MockCheckoutProvider{}
		svc := NewCheckoutService(provider, nil, time.Minute)
		_, err := svc.ConfirmIntent(ctx, &domain.ConfirmIntentRequest{CheckoutIntentID: "ci_1"})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
		if provider.confirmCalls != 0 {
			t.Errorf("confirmCalls = %d, want 0", provider.confirmCalls)
		}
	})
}

func TestWatchIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns exactly one event when the intent completes", func(t *testing.T) {
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentPlacingOrder, nil),
			snapshotInState(domain.IntentPlacingOrder, nil),
			snapshotInState(domain.IntentCompleted, nil),
		}}
		clock := &fakeClock{now: time.Unix(0, 0)}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(clock)

		event, err := svc.WatchIntent(ctx, "ci_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventCompleted {
			t.Errorf("Kind = %q, want completed", event.Kind)
		}
		if provider.getCalls != 3 {
			t.Errorf("getCalls = %d, want 3 (no polling past a terminal state)", provider.getCalls)
		}
		want := []time.Duration{processingPollInterval, processingPollInterval}
		if len(clock.delays) != len(want) || clock.delays[0] != want[0] || clock.delays[1] != want[1] {
			t.Errorf("delays = %v, want %v", clock.delays, want)
		}
	})

	t.Run("failed is terminal too", func(t *testing.T) {
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentFailed, nil),
		}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(&fakeClock{})

		event, err := svc.WatchIntent(ctx, "ci_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventFailed {
			t.Errorf("Kind = %q, want failed", event.Kind)
		}
	})

	t.Run("awaiting intent with an offer reports offer ready", func(t *testing.T) {
		clock := &fakeClock{}
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentAwaitingConfirmation, nil),
			snapshotInState(domain.IntentAwaitingConfirmation, json.RawMessage(`{"total":"78.00"}`)),
		}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(clock)

		event, err := svc.WatchIntent(ctx, "ci_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventOfferReady {
			t.Errorf("Kind = %q, want offer_ready", event.Kind)
		}
		if len(clock.delays) != 1 || clock.delays[0] != offerPollInterval {
			t.Errorf("delays = %v, want one offer poll interval", clock.delays)
		}
	})

	t.Run("null offer does not count as ready", func(t *testing.T) {
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentAwaitingConfirmation, json.RawMessage(`null`)),
			snapshotInState(domain.IntentCompleted, nil),
		}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(&fakeClock{})

		event, err := svc.WatchIntent(ctx, "ci_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventCompleted {
			t.Errorf("Kind = %q, want completed (null offer skipped)", event.Kind)
		}
	})

	t.Run("unknown states keep the watch alive", func(t *testing.T) {
		clock := &fakeClock{}
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentState("reticulating"), nil),
			snapshotInState(domain.IntentCompleted, nil),
		}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(clock)

		event, err := svc.WatchIntent(ctx, "ci_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Kind != EventCompleted {
			t.Errorf("Kind = %q, want completed", event.Kind)
		}
		if len(clock.delays) != 1 || clock.delays[0] != offerPollInterval {
			t.Errorf("delays = %v, want one offer poll interval", clock.delays)
		}
	})

	t.Run("gives up with ErrPollTimeout when the budget runs out", func(t *testing.T) {
		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentAwaitingConfirmation, nil),
		}}
		clock := &fakeClock{}
		svc := NewCheckoutService(provider, nil, 5*time.Second).WithClock(clock)

		_, err := svc.WatchIntent(ctx, "ci_1")
		if !errors.Is(err, domain.ErrPollTimeout) {
			t.Fatalf("error = %v, want ErrPollTimeout", err)
		}
		// 5s budget at 2s per poll allows two sleeps before the third
		// would cross the deadline.
		if provider.getCalls != 3 {
			t.Errorf("getCalls = %d, want 3", provider.getCalls)
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		provider := &MockCheckoutProvider{snapshots: []*domain.IntentSnapshot{
			snapshotInState(domain.IntentAwaitingConfirmation, nil),
		}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(stuckClock{})

		_, err := svc.WatchIntent(cancelled, "ci_1")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("surfaces provider errors", func(t *testing.T) {
		provider := &MockCheckoutProvider{getErr: &domain.ProviderError{Status: 502, Body: "bad gateway"}}
		svc := NewCheckoutService(provider, nil, time.Minute).WithClock(&fakeClock{})

		_, err := svc.WatchIntent(ctx, "ci_1")
		var provErr *domain.ProviderError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, want ProviderError", err)
		}
		if provErr.Status != 502 {
			t.Errorf("Status = %d, want 502", provErr.Status)
		}
	})

	t.Run("empty intent id is rejected", func(t *testing.T) {
		svc := NewCheckoutService(&MockCheckoutProvider{}, nil, time.Minute)
		_, err := svc.WatchIntent(ctx, "")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}
