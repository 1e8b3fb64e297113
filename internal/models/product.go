package models

import "time"

// Product is a catalog entry read by the pricing engine.
//
// Price is stored as text because some catalog rows carry the
// "Custom Quote" sentinel instead of a number. pricing.ParseAmount
// coerces it at the boundary.
type Product struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null;uniqueIndex"` // Catalog name, the pricing lookup key.
	Category    string `gorm:"type:text;not null"`             // Product category.
	Description string `gorm:"type:text"`                      // Display description.

	Price string `gorm:"type:text"`          // Unit price, numeric text or "Custom Quote".
	Stock int    `gorm:"not null;default:0"` // Units in stock.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
