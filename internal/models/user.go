package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is the stored role of a user account.
type Role string

// Role constants define the two account roles.
const (
	// RoleAdmin grants full access to every module.
	RoleAdmin Role = "admin"
	// RoleUser grants access per the stored permission set only.
	RoleUser Role = "user"
)

// User represents a back-office account stored in the database.
//
// IDs are kept dense and sequential starting at 1: deleting a user
// re-sequences the remaining rows. Any cached ID is invalid after a delete.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key, dense and sequential.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email, stored lowercase.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Role        Role           `gorm:"type:text;not null;default:user"` // Account role.
	Permissions datatypes.JSON `gorm:"not null;default:'[]'"`           // Granted module names as a JSON array.

	ResetToken       string     `gorm:"type:text"` // Password reset token, empty when unused.
	ResetTokenExpiry *time.Time // Reset token expiry.

	VerificationCode   string     `gorm:"type:text"` // One-time verification code, empty when unused.
	VerificationExpiry *time.Time // Verification code expiry.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
