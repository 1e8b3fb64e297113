package models

import "time"

// Client represents a customer record owned by a user account.
type Client struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name    string `gorm:"type:text;not null;index"` // Client name.
	Email   string `gorm:"type:text"`                // Contact email.
	Phone   string `gorm:"type:text"`                // Contact phone number.
	Company string `gorm:"type:text"`                // Company or business name.
	Address string `gorm:"type:text"`                // Postal address.

	OwnerID uint64 `gorm:"not null;index"` // Owning user ID; follows user re-sequencing.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
