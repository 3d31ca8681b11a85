package models

// Portfolio is a user's single investment portfolio. Exactly one per user,
// created lazily on the first transaction.
type Portfolio struct {
	Base
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:PortfolioID" json:"transactions,omitempty"`
}

// DefaultPortfolioName is used when a portfolio is created lazily.
const DefaultPortfolioName = "My Main Portfolio"
