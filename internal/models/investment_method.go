package models

import "github.com/shopspring/decimal"

// RiskTier classifies an investment method's risk level.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// InvestmentMethod is a named fixed monthly-ROI strategy. Immutable reference
// data; transactions hold a restricted foreign key to it.
type InvestmentMethod struct {
	Base
	Name       string          `gorm:"not null" json:"name"`
	AuthorID   string          `gorm:"type:uuid;not null" json:"author_id"`
	RiskTier   RiskTier        `gorm:"not null" json:"risk_tier"`
	MonthlyRoi decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"monthly_roi"` // percent per month, e.g. 0.70

	// Relationships
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
