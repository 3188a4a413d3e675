package catalog

import (
	"strings"

	"github.com/paceline/backend/internal/domain"
)

// rawProduct mirrors the catalog API's product shape.
type rawProduct struct {
	ID          string `json:"id"`
	Marketplace string `json:"marketplace"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Vendor      string `json:"vendor"`
	Brand       string `json:"brand"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	Price    *rawPrice    `json:"price"`
	Variants []rawVariant `json:"variants"`
}

type rawPrice struct {
	DisplayValue string `json:"displayValue"`
	Currency     string `json:"currency"`
}

// rawVariant carries every variant encoding the catalog emits: explicit
// selected-option lists, positional option1/2/3 fields, or nothing but
// a "/"-separated title.
type rawVariant struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Option1         string `json:"option1"`
	Option2         string `json:"option2"`
	Option3         string `json:"option3"`
	SelectedOptions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
	Available *bool     `json:"available"`
	Price     *rawPrice `json:"price"`
}

// positionalOptionNames names the option1/2/3 slots and the segments of
// a "/"-separated variant title, in order.
var positionalOptionNames = [3]string{"Size", "Color", "Option"}

// NormalizeProduct converts a raw catalog product into the enrichment
// pipeline's stage-one input.
func NormalizeProduct(raw *rawProduct) *domain.EnrichedProduct {
	if raw == nil {
		return nil
	}

	kind := domain.SourceStorefront
	if raw.Marketplace == "AMAZON" {
		kind = domain.SourceMarketplace
	}

	price := "Varies"
	currency := "USD"
	if raw.Price != nil {
		if raw.Price.DisplayValue != "" {
			price = raw.Price.DisplayValue
		}
		if raw.Price.Currency != "" {
			currency = raw.Price.Currency
		}
	}

	images := make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}

	brand := raw.Brand
	if brand == "" {
		brand = raw.Vendor
	}

	variants := make([]domain.Variant, 0, len(raw.Variants))
	for _, rv := range raw.Variants {
		variants = append(variants, normalizeVariant(rv, kind, price, currency))
	}

	return &domain.EnrichedProduct{
		Brand:        brand,
		Title:        raw.Title,
		Description:  raw.Description,
		Images:       images,
		Price:        price,
		CurrencyCode: currency,
		Variants:     variants,
		SourceKind:   kind,
	}
}

// normalizeVariant maps one raw variant, extracting options from
// whichever encoding the catalog used. Marketplace variants are
// distinct listings, so their title becomes a single non-combinable
// option instead of attribute pairs.
func normalizeVariant(rv rawVariant, kind domain.SourceKind, productPrice, productCurrency string) domain.Variant {
	title := rv.Title
	if title == "" {
		title = "Default"
	}

	variant := domain.Variant{
		ID:           rv.ID,
		Title:        title,
		Available:    true,
		Price:        productPrice,
		CurrencyCode: productCurrency,
		SourceKind:   kind,
	}
	if rv.Available != nil {
		variant.Available = *rv.Available
	}
	if rv.Price != nil && rv.Price.DisplayValue != "" {
		variant.Price = rv.Price.DisplayValue
		if rv.Price.Currency != "" {
			variant.CurrencyCode = rv.Price.Currency
		}
	}

	variant.Options = extractOptions(rv, kind, title)
	return variant
}

// extractOptions resolves the variant's options from the explicit list,
// the positional fields, or the title convention, in that order of
// trust. Duplicate (name, value) pairs are dropped case-insensitively.
func extractOptions(rv rawVariant, kind domain.SourceKind, title string) []domain.VariantOption {
	if kind == domain.SourceMarketplace {
		if title == "Default" {
			return nil
		}
		return []domain.VariantOption{{Name: "Variant", Value: title}}
	}

	var options []domain.VariantOption

	if len(rv.SelectedOptions) > 0 {
		for _, o := range rv.SelectedOptions {
			if o.Name != "" && o.Value != "" {
				options = append(options, domain.VariantOption{Name: o.Name, Value: o.Value})
			}
		}
		return dedupeOptions(options)
	}

	positional := [3]string{rv.Option1, rv.Option2, rv.Option3}
	for i, value := range positional {
		if value != "" {
			options = append(options, domain.VariantOption{Name: positionalOptionNames[i], Value: value})
		}
	}
	if len(options) > 0 {
		return dedupeOptions(options)
	}

	// Last resort: split a "Small / Blue" style title
	parts := strings.Split(title, "/")
	if len(parts) > 1 {
		for i, p := range parts {
			if i >= len(positionalOptionNames) {
				break
			}
			if v := strings.TrimSpace(p); v != "" {
				options = append(options, domain.VariantOption{Name: positionalOptionNames[i], Value: v})
			}
		}
	} else if title != "Default" {
		options = append(options, domain.VariantOption{Name: "Option", Value: title})
	}

	return dedupeOptions(options)
}

func dedupeOptions(options []domain.VariantOption) []domain.VariantOption {
	seen := make(map[string]bool, len(options))
	out := options[:0]
	for _, o := range options {
		key := strings.ToLower(o.Name) + "\x00" + strings.ToLower(o.Value)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}
