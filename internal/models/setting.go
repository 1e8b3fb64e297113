package models

import (
	"encoding/json"
	"time"
)

// Setting stores one JSON-encoded configuration value by key.
type Setting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key   string          `gorm:"type:text;not null;uniqueIndex"` // Setting key.
	Value json.RawMessage `gorm:"type:text"`                      // JSON-encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
