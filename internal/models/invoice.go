package models

import (
	"time"

	"gorm.io/datatypes"
)

// InvoiceStatus represents the payment state of an invoice.
type InvoiceStatus string

// InvoiceStatus constants define invoice payment states.
const (
	// InvoiceStatusPending marks an invoice awaiting payment.
	InvoiceStatusPending InvoiceStatus = "pending"
	// InvoiceStatusPaid marks an invoice as paid.
	InvoiceStatusPaid InvoiceStatus = "paid"
)

// Invoice records a priced sale for a client.
type Invoice struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ClientID uint64 `gorm:"not null;index"`      // Related client ID.
	Client   Client `gorm:"foreignKey:ClientID"` // Related client record.

	Product string  `gorm:"type:text;not null"`                    // Primary product name.
	Area    float64 `gorm:"type:decimal(10,2);not null;default:0"` // Area or quantity of the primary product.

	Subtotal float64 `gorm:"type:decimal(10,2);not null;default:0"` // Pre-tax subtotal (base + extras).
	Tax      float64 `gorm:"type:decimal(10,2);not null;default:0"` // Tax amount, zero when tax-exclusive.
	Total    float64 `gorm:"type:decimal(10,2);not null;default:0"` // Grand total.

	Extras datatypes.JSON `gorm:"not null;default:'[]'"` // Itemized extras breakdown as a JSON array.

	Status InvoiceStatus `gorm:"type:text;not null;default:pending"` // Payment status.

	OwnerID uint64 `gorm:"not null;index"` // Owning user ID; follows user re-sequencing.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
