package models

import (
	"time"

	"github.com/humexxx/capital-galaxy/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SnapshotSource records a snapshot's provenance.
type SnapshotSource string

const (
	SnapshotSourceSystemCron    SnapshotSource = "system_cron"
	SnapshotSourceAdminApproval SnapshotSource = "admin_approval"
	SnapshotSourceManual        SnapshotSource = "manual"
	SnapshotSourceAdminEnforce  SnapshotSource = "admin_enforce"
)

// PortfolioSnapshot is a point-in-time valuation of a portfolio.
// Immutable time-series data: no Base embed, no soft deletes; rows are only
// ever inserted, or bulk-deleted when source is manual.
type PortfolioSnapshot struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID string          `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Date        time.Time       `gorm:"not null" json:"date"`
	TotalValue  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_value"`
	Source      SnapshotSource  `gorm:"not null" json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
