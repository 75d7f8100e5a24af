// Package catalog holds the fixed table of boost packages a seller can buy.
// A package is a priced promotion tier: pay UnitPrice per listing and the
// listing stays boosted for DurationDays. The table is static data, never
// persisted and never mutated at runtime.
package catalog

import "fmt"

// Package is a single promotion tier.
type Package struct {
	DurationDays int
	UnitPrice    float64
}

// Catalog is the ordered set of tiers offered to sellers.
type Catalog struct {
	packages []Package
}

// Default returns the catalog currently offered by the storefront.
func Default() *Catalog {
	return New([]Package{
		{DurationDays: 1, UnitPrice: 100},
		{DurationDays: 3, UnitPrice: 250},
		{DurationDays: 7, UnitPrice: 500},
	})
}

// New builds a catalog from the given tiers. Tiers with non-positive
// duration or negative price are silently skipped; they can never be sold.
func New(packages []Package) *Catalog {
	valid := make([]Package, 0, len(packages))
	for _, p := range packages {
		if p.DurationDays <= 0 || p.UnitPrice < 0 {
			continue
		}
		valid = append(valid, p)
	}
	return &Catalog{packages: valid}
}

// Packages returns a copy of the tier table.
func (c *Catalog) Packages() []Package {
	out := make([]Package, len(c.packages))
	copy(out, c.packages)
	return out
}

// ByDuration looks up the tier with the given duration.
func (c *Catalog) ByDuration(days int) (Package, error) {
	for _, p := range c.packages {
		if p.DurationDays == days {
			return p, nil
		}
	}
	return Package{}, fmt.Errorf("catalog: no %d-day package", days)
}
