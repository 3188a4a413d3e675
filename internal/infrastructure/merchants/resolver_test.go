package merchants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_BuildsDomainScopedURLs(t *testing.T) {
	resolver := NewResolver([]string{"nike.com", "rei.com"})

	products, err := resolver.Search(context.Background(), "running shoes", 6)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "https://nike.com/search?q=running+shoes", products[0].URL)
	assert.Equal(t, "nike.com", products[0].MerchantDomain)
	assert.Equal(t, "External product", products[0].Name)
	assert.Equal(t, "Varies", products[0].Price)
	assert.Equal(t, "Supported external merchant.", products[0].Reason)
	assert.Equal(t, "https://rei.com/search?q=running+shoes", products[1].URL)
}

func TestSearch_RespectsLimit(t *testing.T) {
	resolver := NewResolver([]string{"nike.com", "rei.com", "whoop.com"})

	products, err := resolver.Search(context.Background(), "tracker", 2)

	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestSearch_NoDomainsConfigured(t *testing.T) {
	resolver := NewResolver(nil)

	products, err := resolver.Search(context.Background(), "anything", 6)

	require.NoError(t, err)
	assert.Empty(t, products)
}
