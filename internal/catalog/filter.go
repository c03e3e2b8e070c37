package catalog

import (
	"sort"
	"strings"

	"motoverse/internal/models"

	"github.com/shopspring/decimal"
)

// All is the sentinel value that disables a predicate.
const All = "All"

// Filter describes one storefront filter panel state. Zero-value string
// fields behave like All; nil price bounds leave that side of the interval
// open.
type Filter struct {
	Category  string
	Brand     string
	Condition string
	FuelType  string
	Query     string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
}

// Matches reports whether a single product satisfies the conjunction of all
// active predicates. Products are normalized at the gateway boundary, so
// condition and fuel type are always populated here.
func (f Filter) Matches(p models.Product) bool {
	if !sentinelMatch(f.Category, p.Category) {
		return false
	}
	if !sentinelMatch(f.Brand, p.Brand) {
		return false
	}
	if !sentinelMatch(f.Condition, p.Condition) {
		return false
	}
	if !sentinelMatch(f.FuelType, p.FuelType) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		name := strings.ToLower(p.Name)
		desc := strings.ToLower(p.Description)
		if !strings.Contains(name, q) && !strings.Contains(desc, q) {
			return false
		}
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func sentinelMatch(want, have string) bool {
	return want == "" || want == All || want == have
}

// Apply returns the subset of products matching the filter. Pure: the input
// slice is never mutated and an empty result is a valid, non-nil slice.
func Apply(products []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Brands returns the filter panel's brand list: the fixed brand enumeration
// merged with every brand present in the live catalog, deduplicated and
// sorted.
func Brands(products []models.Product) []string {
	seen := make(map[string]struct{}, len(models.KnownBrands)+len(products))
	out := make([]string, 0, len(models.KnownBrands)+len(products))

	add := func(b string) {
		if b == "" {
			return
		}
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}

	for _, b := range models.KnownBrands {
		add(b)
	}
	for _, p := range products {
		add(p.Brand)
	}

	sort.Strings(out)
	return out
}
