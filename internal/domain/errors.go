package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingBuyerField is returned when a required buyer field is absent;
	// wrapped with the field name before any upstream call is made
	ErrMissingBuyerField = errors.New("missing required buyer field")

	// ErrNoProductMatch is returned when the structured catalog cannot
	// resolve a product for a URL
	ErrNoProductMatch = errors.New("no product match in catalog")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrPollTimeout is returned when an intent never reaches a terminal
	// state within the configured poll budget
	ErrPollTimeout = errors.New("checkout intent poll budget exceeded")

	// ErrNoVariantMatch is returned when no product variant satisfies
	// the buyer's selected options
	ErrNoVariantMatch = errors.New("no variant matches the selected options")
)

// ProviderError carries a non-2xx checkout provider response so callers
// can surface the upstream status and body verbatim.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("checkout provider error %d: %s", e.Status, e.Body)
}
