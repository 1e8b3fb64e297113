// Package pricing computes invoice and quote totals from a product catalog,
// a primary product selection, and an open set of extra line items.
//
// The engine is total: missing catalog entries price at zero, extras with no
// quantity contribute nothing, and no input ever produces an error. Validating
// that a product exists is a caller concern.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TaxRate is the fixed tax rate applied when a request is tax-inclusive.
const TaxRate = 0.10

// Extra kind constants name the known add-on line items.
const (
	ExtraArtificialHedges = "artificial_hedges"
	ExtraFountain         = "fountain"
	ExtraBamboo           = "bamboo"
	ExtraPebbles          = "pebbles"
	ExtraPegs             = "pegs"
	ExtraAdhesiveTape     = "adhesive_tape"
)

// Catalog lookup keys for extras.
const (
	KeyArtificialHedges = "Artificial Hedges"
	KeyFountain         = "Fountains"
	KeyPegs             = "Peg (U-pins/Nails)"
	KeyAdhesiveTape     = "Adhesive Joining Tape"
	KeyBambooStandard   = "Bamboo Products"
	KeyPebblesStandard  = "Pebbles Standard"
	KeyPebblesPremium   = "Pebbles Multicolour/Glow"
)

// bambooSizes are the recognized bamboo lengths with tiered catalog keys.
var bambooSizes = map[string]string{
	"1.8m": "Bamboo (1.8m)",
	"2m":   "Bamboo (2m)",
	"2.4m": "Bamboo (2.4m)",
}

// pebblePremiumColours select the premium pebble tier.
var pebblePremiumColours = map[string]struct{}{
	"multicolour": {},
	"glow":        {},
}

// Catalog maps product and extra names to unit prices.
type Catalog map[string]float64

// Extra is one optional add-on line item in a pricing request.
type Extra struct {
	Name        string  // Extra kind, one of the Extra* constants or a catalog name.
	Quantity    float64 // Units requested; zero or negative contributes nothing.
	Subtype     string  // Pricing tier selector (bamboo length, pebble colour).
	CustomPrice float64 // Caller-negotiated unit price, used when positive.
}

// Request describes one pricing computation.
type Request struct {
	Product      string  // Primary product catalog name.
	Area         float64 // Area or quantity of the primary product.
	Extras       []Extra // Optional add-ons, order preserved in the breakdown.
	TaxInclusive bool    // Whether to add tax at TaxRate.
}

// Line is one contributing extra in the itemized breakdown.
type Line struct {
	Label     string  `json:"label"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Result is the computed pricing outcome. All currency fields are rounded to
// two decimal places.
type Result struct {
	BaseSubtotal   float64 `json:"base_subtotal"`
	ExtrasSubtotal float64 `json:"extras_subtotal"`
	Subtotal       float64 `json:"subtotal"` // Pre-tax amount rounded as one value, not a sum of rounded parts.
	Lines          []Line  `json:"lines"`
	TaxAmount      float64 `json:"tax_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// ComputeTotal prices a request against the catalog. It never fails; see the
// package comment for the defaulting rules.
func ComputeTotal(catalog Catalog, req Request) Result {
	base := 0.0
	if req.Area > 0 {
		base = catalog[req.Product] * req.Area
	}

	extras := 0.0
	lines := make([]Line, 0, len(req.Extras))
	for _, extra := range req.Extras {
		if extra.Quantity <= 0 {
			continue
		}
		unit, label := resolveExtra(catalog, extra)
		total := unit * extra.Quantity
		extras += total
		lines = append(lines, Line{
			Label:     label,
			Quantity:  extra.Quantity,
			UnitPrice: round2(unit),
			Total:     round2(total),
		})
	}

	pretax := base + extras
	tax := 0.0
	if req.TaxInclusive {
		tax = pretax * TaxRate
	}

	return Result{
		BaseSubtotal:   round2(base),
		ExtrasSubtotal: round2(extras),
		Subtotal:       round2(pretax),
		Lines:          lines,
		TaxAmount:      round2(tax),
		GrandTotal:     round2(pretax + tax),
	}
}

// resolveExtra picks the unit price and display label for one extra.
func resolveExtra(catalog Catalog, extra Extra) (float64, string) {
	switch extra.Name {
	case ExtraArtificialHedges:
		return catalog[KeyArtificialHedges], KeyArtificialHedges
	case ExtraPegs:
		return catalog[KeyPegs], KeyPegs
	case ExtraAdhesiveTape:
		return catalog[KeyAdhesiveTape], KeyAdhesiveTape
	case ExtraBamboo:
		size := strings.ToLower(strings.TrimSpace(extra.Subtype))
		if key, ok := bambooSizes[size]; ok {
			return catalog[key], key
		}
		return catalog[KeyBambooStandard], KeyBambooStandard
	case ExtraPebbles:
		colour := strings.ToLower(strings.TrimSpace(extra.Subtype))
		key := KeyPebblesStandard
		if _, ok := pebblePremiumColours[colour]; ok {
			key = KeyPebblesPremium
		}
		label := key
		if colour != "" {
			label = fmt.Sprintf("Pebbles (%s)", strings.TrimSpace(extra.Subtype))
		}
		return catalog[key], label
	case ExtraFountain:
		if extra.CustomPrice > 0 {
			return extra.CustomPrice, KeyFountain
		}
		return catalog[KeyFountain], KeyFountain
	default:
		// Open-ended: an unrecognized extra prices by its own catalog name.
		return catalog[extra.Name], extra.Name
	}
}

// ParseAmount coerces free-text price input to a number. Unparsable values,
// including the "Custom Quote" sentinel, become 0. Callers apply this at the
// boundary before building a Catalog or Request.
func ParseAmount(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// round2 rounds to two decimal places, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
