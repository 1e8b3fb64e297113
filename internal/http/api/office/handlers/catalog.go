package handlers

import (
	"context"
	"fmt"

	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/pricing"
	"gorm.io/gorm"
)

// loadCatalog builds the pricing catalog from the products table. Rows with
// the "Custom Quote" sentinel coerce to zero and price as manual items.
func loadCatalog(ctx context.Context, db *gorm.DB) (pricing.Catalog, error) {
	var rows []models.Product
	if errFind := db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("load catalog: %w", errFind)
	}
	catalog := make(pricing.Catalog, len(rows))
	for _, row := range rows {
		catalog[row.Name] = pricing.ParseAmount(row.Price)
	}
	return catalog, nil
}

// extraInput is the wire form of a priced extra.
type extraInput struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Subtype     string  `json:"subtype"`
	CustomPrice float64 `json:"custom_price"`
}

// toPricingExtras converts wire extras to pricing inputs in order.
func toPricingExtras(in []extraInput) []pricing.Extra {
	out := make([]pricing.Extra, 0, len(in))
	for _, e := range in {
		out = append(out, pricing.Extra{
			Name:        e.Name,
			Quantity:    e.Quantity,
			Subtype:     e.Subtype,
			CustomPrice: e.CustomPrice,
		})
	}
	return out
}
