package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `
<html><head>
<meta name="description" content="A   cushioned daily trainer for long miles."/>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Trail Runner 5",
  "review": [
    {"reviewRating": {"ratingValue": 5}, "name": "Great shoe", "reviewBody": "Best trainer I have owned, period."},
    {"reviewRating": {"ratingValue": 2.5}, "headline": "Runs small", "description": "Had to size up half a size to fit."},
    {"name": "No text review"}
  ]
}
</script>
</head><body>
<div id="feature-bullets">
  <li>Responsive foam midsole</li>
  <li>Responsive foam midsole</li>
  <li>short</li>
  <li>Engineered mesh upper keeps feet cool</li>
</div>
</body></html>`

const appReviewPage = `
<html><body>
<div data-review-content="Love these, wore them for a marathon with zero blisters."></div>
<div class="jdgm-rev__body">Solid grip on wet pavement, laces are a bit short though.</div>
<div class="jdgm-rev__body">ok</div>
<div class="rte"><li>Breathable knit upper for all-day comfort</li></div>
</body></html>`

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(html))
	}))
}

func TestScrapePDP_JSONLDReviews(t *testing.T) {
	server := serve(t, jsonLDPage)
	defer server.Close()

	page, err := NewScraper().ScrapePDP(context.Background(), server.URL)
	require.NoError(t, err)

	// Reviews without text are dropped
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, "5", page.Reviews[0].Rating)
	assert.Equal(t, "Great shoe", page.Reviews[0].Title)
	assert.Equal(t, "Best trainer I have owned, period.", page.Reviews[0].Text)
	assert.Equal(t, "2.5", page.Reviews[1].Rating)
	assert.Equal(t, "Runs small", page.Reviews[1].Title)

	// Bullets deduped, too-short ones dropped
	assert.Equal(t, []string{"Responsive foam midsole", "Engineered mesh upper keeps feet cool"}, page.Highlights)

	assert.Equal(t, "A cushioned daily trainer for long miles.", page.MetaDescription)
}

func TestScrapePDP_AppReviewFallback(t *testing.T) {
	server := serve(t, appReviewPage)
	defer server.Close()

	page, err := NewScraper().ScrapePDP(context.Background(), server.URL)
	require.NoError(t, err)

	// No JSON-LD, so container text is used; short snippets dropped
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, "Love these, wore them for a marathon with zero blisters.", page.Reviews[0].Text)
	assert.Equal(t, "Solid grip on wet pavement, laces are a bit short though.", page.Reviews[1].Text)

	assert.Equal(t, []string{"Breathable knit upper for all-day comfort"}, page.Highlights)
}

func TestScrapePDP_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewScraper().ScrapePDP(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestScrapePDP_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force connection refused

	_, err := NewScraper().ScrapePDP(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeSpace("  a\n b\t c "))
	assert.Equal(t, "", normalizeSpace("   "))
}
