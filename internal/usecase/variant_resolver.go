package usecase

import (
	"strings"

	"github.com/paceline/backend/internal/domain"
)

// BuildOptionGroups collapses variant options into a map of option name
// to the distinct values seen for it. Names and values keep the casing
// and order of their first appearance; duplicates are matched
// case-insensitively.
func BuildOptionGroups(variants []domain.Variant) map[string][]string {
	groups := make(map[string][]string)
	canonical := make(map[string]string)
	seen := make(map[string]bool)

	for _, v := range variants {
		for _, opt := range v.Options {
			if opt.Name == "" || opt.Value == "" {
				continue
			}

			nameKey := strings.ToLower(opt.Name)
			name, ok := canonical[nameKey]
			if !ok {
				name = opt.Name
				canonical[nameKey] = name
			}

			valueKey := nameKey + "\x00" + strings.ToLower(opt.Value)
			if seen[valueKey] {
				continue
			}
			seen[valueKey] = true
			groups[name] = append(groups[name], opt.Value)
		}
	}

	return groups
}

// MatchVariant returns the first variant whose options satisfy every
// pair in the selection, compared case-insensitively. Iteration order
// follows the variant list, so the same selection always resolves to
// the same variant. Returns nil when nothing matches or the selection
// is empty.
func MatchVariant(variants []domain.Variant, selection map[string]string) *domain.Variant {
	if len(selection) == 0 {
		return nil
	}

	for i := range variants {
		if variantSatisfies(&variants[i], selection) {
			return &variants[i]
		}
	}
	return nil
}

func variantSatisfies(v *domain.Variant, selection map[string]string) bool {
	for name, want := range selection {
		if !variantHasOption(v, name, want) {
			return false
		}
	}
	return true
}

func variantHasOption(v *domain.Variant, name, value string) bool {
	for _, opt := range v.Options {
		if strings.EqualFold(opt.Name, name) && strings.EqualFold(opt.Value, value) {
			return true
		}
	}
	return false
}
