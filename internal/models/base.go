package models

import (
	"time"

	"github.com/humexxx/capital-galaxy/internal/uuid"

	"gorm.io/gorm"
)

// Base carries the id and bookkeeping columns shared by every mutable table.
// Snapshots and job runs do not embed it; they are immutable rows with their
// own narrower column sets.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a time-ordered UUIDv7 unless the caller provided one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
