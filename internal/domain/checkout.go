package domain

import "encoding/json"

// Buyer holds the contact and shipping fields the checkout provider
// requires to create an intent. Immutable once submitted for an intent.
type Buyer struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// CreateIntentRequest is the payload for creating a checkout intent.
type CreateIntentRequest struct {
	Buyer           Buyer           `json:"buyer"`
	ProductURL      string          `json:"productUrl"`
	Quantity        int             `json:"quantity"`
	VariantID       string          `json:"variantId,omitempty"`
	SelectedOptions []VariantOption `json:"selectedOptions,omitempty"`
}

// ConfirmIntentRequest submits a payment token for an intent that has
// a computed offer.
type ConfirmIntentRequest struct {
	CheckoutIntentID string `json:"checkoutIntentId"`
	PaymentToken     string `json:"paymentToken"`
}

// IntentState is the provider-owned lifecycle state of a checkout
// intent. States outside this set are treated as non-terminal.
type IntentState string

const (
	IntentAwaitingConfirmation IntentState = "awaiting_confirmation"
	IntentPlacingOrder         IntentState = "placing_order"
	IntentCompleted            IntentState = "completed"
	IntentFailed               IntentState = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s IntentState) Terminal() bool {
	return s == IntentCompleted || s == IntentFailed
}

// CheckoutIntent is the locally-parsed view of a provider intent. The
// offer is provider-shaped, so it is kept raw and only checked for
// presence.
type CheckoutIntent struct {
	ID    string          `json:"id"`
	State IntentState     `json:"state"`
	Offer json.RawMessage `json:"offer,omitempty"`
}

// HasOffer reports whether the provider has finished computing an
// offer for this intent.
func (i *CheckoutIntent) HasOffer() bool {
	return len(i.Offer) > 0 && string(i.Offer) != "null"
}

// IntentSnapshot pairs the parsed intent with the provider's verbatim
// response body, which callers are handed unmodified.
type IntentSnapshot struct {
	Intent CheckoutIntent
	Raw    json.RawMessage
}
