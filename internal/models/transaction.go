package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeBuy        TransactionType = "buy"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus represents a transaction's lifecycle state.
// Transitions are one-way: pending -> approved|rejected, approved -> closed
// (value exhaustion only). rejected and closed are terminal.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
	TransactionStatusClosed   TransactionStatus = "closed"
)

// Transaction is the ledger's central entity: a buy opens a position whose
// current value accrues interest; a withdrawal draws a specific buy down.
type Transaction struct {
	Base
	PortfolioID        string            `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	InvestmentMethodID string            `gorm:"type:uuid;not null" json:"investment_method_id"`
	Type               TransactionType   `gorm:"not null" json:"type"`
	Amount             decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Fee                decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"fee"`
	Total              decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total"` // amount + fee, immutable
	Date               time.Time         `gorm:"not null" json:"date"`
	Notes              string            `json:"notes"`
	Status             TransactionStatus `gorm:"not null;default:pending;index" json:"status"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *string    `gorm:"type:uuid" json:"approved_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	RejectedBy *string    `gorm:"type:uuid" json:"rejected_by,omitempty"`

	// Buy transactions only. InitialValue is fixed at approval time;
	// CurrentValue is mutated by interest accrual and withdrawals.
	InitialValue decimal.NullDecimal        `gorm:"type:numeric(14,2)" json:"initial_value,omitempty"`
	CurrentValue decimal.NullDecimal        `gorm:"type:numeric(14,2)" json:"current_value,omitempty"`
	WithdrawalTransactionIDs datatypes.JSONSlice[string] `json:"withdrawal_transaction_ids,omitempty"`

	// Withdrawal transactions only: the buy transaction being drawn down.
	SourceTransactionID *string `gorm:"type:uuid" json:"source_transaction_id,omitempty"`

	// Relationships
	Portfolio        Portfolio        `gorm:"foreignKey:PortfolioID" json:"portfolio,omitempty"`
	InvestmentMethod InvestmentMethod `gorm:"foreignKey:InvestmentMethodID" json:"investment_method,omitempty"`
}
