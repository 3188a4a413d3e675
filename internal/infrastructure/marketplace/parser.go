package marketplace

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/paceline/backend/internal/domain"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	offscreenRegex  = regexp.MustCompile(`\$([\d,]+)\.(\d{2})`)
	ratingRegex     = regexp.MustCompile(`(\d+\.?\d*)`)
	nonDigitComma   = regexp.MustCompile(`[^\d,]`)
	nonDigit        = regexp.MustCompile(`[^\d]`)
)

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// cleanPrice assembles a display price from the marketplace's split
// whole/fraction price markup.
func cleanPrice(whole, fraction string) string {
	w := nonDigitComma.ReplaceAllString(cleanText(whole), "")
	f := nonDigit.ReplaceAllString(cleanText(fraction), "")
	if w == "" {
		return "Price not available"
	}

	cents := f + "00"
	return "$" + w + "." + cents[:2]
}

// ExtractSearchResults parses a marketplace search result page into
// product cards. Containers that fail to parse contribute a card with
// descriptive defaults rather than being dropped.
func ExtractSearchResults(doc *goquery.Document, baseURL string, maxResults int) []domain.Product {
	var products []domain.Product

	doc.Find(`[data-component-type="s-search-result"]`).EachWithBreak(func(i int, container *goquery.Selection) bool {
		if i >= maxResults {
			return false
		}

		product := domain.Product{
			Name:           "Product name not found",
			Price:          "Price not available",
			ImageURL:       "Image not found",
			URL:            "URL not found",
			Rating:         "Rating not available",
			MerchantDomain: "amazon.com",
		}

		if asin, ok := container.Attr("data-asin"); ok {
			product.SourceID = asin
		}

		if name := cleanText(container.Find("a h2 span").First().Text()); name != "" {
			product.Name = name
		}

		if href, ok := container.Find("a").First().Attr("href"); ok && href != "" {
			if strings.HasPrefix(href, "/") {
				product.URL = baseURL + href
			} else {
				product.URL = href
			}
		}

		whole := container.Find(".a-price-whole").First().Text()
		fraction := container.Find(".a-price-fraction").First().Text()
		if cleanText(whole) != "" {
			product.Price = cleanPrice(whole, fraction)
		} else if alt := container.Find(`[data-a-color="price"] .a-offscreen`).First().Text(); alt != "" {
			if m := offscreenRegex.FindStringSubmatch(alt); m != nil {
				product.Price = "$" + m[1] + "." + m[2]
			}
		}

		if src, ok := container.Find("img.s-image").First().Attr("src"); ok && src != "" {
			product.ImageURL = src
		}

		if ratingText := container.Find(".a-icon-alt").First().Text(); ratingText != "" {
			if m := ratingRegex.FindStringSubmatch(ratingText); m != nil {
				product.Rating = m[1] + " out of 5"
			}
		}

		products = append(products, product)
		return true
	})

	return products
}
