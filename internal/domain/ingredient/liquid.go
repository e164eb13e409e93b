// Package ingredient carries small classification helpers for ingredient
// records returned by the remote API.
package ingredient

import "strings"

// Default weight-entry units.
const (
	UnitGrams       = "g"
	UnitMillilitres = "ml"
)

// liquidKeywords are matched as substrings of the lowercased name.
var liquidKeywords = []string{
	"water",
	"milk",
	"oil",
	"juice",
	"syrup",
	"vinegar",
	"cream",
	"honey",
	"sauce",
	"extract",
	"essence",
	"ghee",
	"butter",
}

// liquidCategories classify an ingredient as liquid regardless of name.
var liquidCategories = map[string]struct{}{
	"oils":      {},
	"dairy":     {},
	"beverages": {},
	"fats":      {},
}

// IsLiquid reports whether an ingredient should default to volume-based
// weight entry. It is a display heuristic only; nutrition math always
// works in grams.
func IsLiquid(name, category string) bool {
	lower := strings.ToLower(name)
	for _, kw := range liquidKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	_, ok := liquidCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// DefaultUnit returns the weight-entry unit pre-selected for an
// ingredient: "ml" for liquids, "g" otherwise.
func DefaultUnit(name, category string) string {
	if IsLiquid(name, category) {
		return UnitMillilitres
	}
	return UnitGrams
}
