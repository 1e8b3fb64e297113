package models

import "time"

// TaskStatus represents the progress state of a task.
type TaskStatus string

// TaskStatus constants define task progress states.
const (
	// TaskStatusPending marks a task not yet started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress marks a task being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted TaskStatus = "completed"
)

// Task records a scheduled job, surfaced on the calendar by due date.
type Task struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string `gorm:"type:text;not null"` // Short task title.
	Description string `gorm:"type:text"`          // Free-text details.

	DueDate *time.Time `gorm:"index"` // Optional due date, drives calendar placement.

	Status TaskStatus `gorm:"type:text;not null;default:pending"` // Progress state.

	OwnerID uint64 `gorm:"not null;index"` // Owning user ID; follows user re-sequencing.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
