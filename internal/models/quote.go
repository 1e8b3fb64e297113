package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quote records a non-binding priced estimate for a prospective client.
type Quote struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ClientName string  `gorm:"type:text;not null"`                    // Prospective client name.
	Product    string  `gorm:"type:text;not null"`                    // Primary product name.
	Area       float64 `gorm:"type:decimal(10,2);not null;default:0"` // Area or quantity of the primary product.

	Subtotal float64 `gorm:"type:decimal(10,2);not null;default:0"` // Pre-tax subtotal (base + extras).
	Tax      float64 `gorm:"type:decimal(10,2);not null;default:0"` // Tax amount, zero when tax-exclusive.
	Total    float64 `gorm:"type:decimal(10,2);not null;default:0"` // Grand total.

	Extras datatypes.JSON `gorm:"not null;default:'[]'"` // Itemized extras breakdown as a JSON array.

	OwnerID uint64 `gorm:"not null;index"` // Owning user ID; follows user re-sequencing.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
