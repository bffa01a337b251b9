package domain

import (
	"github.com/shopspring/decimal"
)

// ProductRecord is the canonical representation of one catalog row after
// validation. All fields are required; records with missing or malformed
// fields never enter the system.
type ProductRecord struct {
	// ID is the unique product identifier across the catalog.
	ID string

	// Name is the human-readable product name.
	Name string

	// Description is the marketing/technical description used for retrieval.
	Description string

	// Category is the product category label (e.g. "Été", "Toutes-saisons").
	Category string

	// Price is the list price in euros.
	Price decimal.Decimal

	// Link is the product page URL.
	Link string

	// Row is the 1-based row number in the source file, kept for
	// diagnostics. Output order matches input row order.
	Row int
}

// Catalog is an ordered collection of validated product records.
type Catalog struct {
	// Products preserves source row order.
	Products []ProductRecord

	byID map[string]int
}

// NewCatalog builds a catalog from validated records. Callers are expected
// to have rejected duplicate IDs already; later duplicates would shadow
// earlier ones in lookups.
func NewCatalog(products []ProductRecord) *Catalog {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &Catalog{Products: products, byID: byID}
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.Products)
}

// ByID returns the product with the given ID, or nil if absent.
func (c *Catalog) ByID(id string) *ProductRecord {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &c.Products[i]
}

// ByCategory returns all products with the given category label, in
// catalog order.
func (c *Catalog) ByCategory(category string) []ProductRecord {
	var out []ProductRecord
	for _, p := range c.Products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// InPriceRange returns products whose price lies in [min, max], inclusive.
func (c *Catalog) InPriceRange(min, max decimal.Decimal) []ProductRecord {
	var out []ProductRecord
	for _, p := range c.Products {
		if p.Price.GreaterThanOrEqual(min) && p.Price.LessThanOrEqual(max) {
			out = append(out, p)
		}
	}
	return out
}
