package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, fullName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	ListActiveUserIDs() ([]string, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// PortfolioStats aggregates a portfolio's headline numbers.
type PortfolioStats struct {
	TotalValue     decimal.Decimal `json:"total_value"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
}

// PortfolioServicer defines the contract for portfolio identity and stats.
type PortfolioServicer interface {
	GetUserPortfolio(userID string) (*models.Portfolio, error)
	GetPortfolioByID(id string) (*models.Portfolio, error)
	GetOrCreatePortfolio(userID string) (*models.Portfolio, error)
	ListPortfolios() ([]models.Portfolio, error)
	GetStats(portfolioID string) (*PortfolioStats, error)
}

// InvestmentMethodServicer defines the contract for the fixed-ROI reference data.
type InvestmentMethodServicer interface {
	CreateMethod(authorID, name string, riskTier models.RiskTier, monthlyRoi decimal.Decimal) (*models.InvestmentMethod, error)
	GetMethodByID(id string) (*models.InvestmentMethod, error)
	ListMethods(page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentMethod], error)
	DeleteMethod(id string) error
}

// TransactionInput carries the user-supplied fields of a new transaction.
// The date must already be validated by the caller; non-admin submissions are
// forced to the current timestamp before this layer is reached.
type TransactionInput struct {
	InvestmentMethodID  string
	Type                models.TransactionType
	Amount              decimal.Decimal
	Fee                 decimal.Decimal
	Date                time.Time
	Notes               string
	SourceTransactionID *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Status   *models.TransactionStatus
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput, isAdmin bool) (*models.Transaction, *models.Portfolio, error)
	Approve(transactionID, adminID string) (*models.Transaction, error)
	Reject(transactionID, adminID string) (*models.Transaction, error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	GetPortfolioTransactions(portfolioID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	ListTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// InterestResult reports the outcome of one accrual batch.
type InterestResult struct {
	Processed int `json:"processed"`
	Closed    int `json:"closed"`
}

// InterestServicer defines the contract for the compound accrual engine.
type InterestServicer interface {
	// ApplyMonthlyInterest compounds every open approved buy position by its
	// method's monthly rate. Each call compounds again; invoking it at most
	// once per calendar month is the caller's responsibility.
	ApplyMonthlyInterest(beforeDate *time.Time) (*InterestResult, error)
}

// SnapshotResult reports whether a snapshot row was persisted and the
// computed total either way.
type SnapshotResult struct {
	Created    bool            `json:"created"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// DailySnapshotsResult reports the outcome of a snapshot pass over all portfolios.
type DailySnapshotsResult struct {
	Date            time.Time `json:"date"`
	Created         int       `json:"snapshots_created"`
	TotalPortfolios int       `json:"total_portfolios"`
	Errors          []string  `json:"errors,omitempty"`
}

// SnapshotServicer defines the contract for the valuation snapshot engine.
type SnapshotServicer interface {
	Snapshot(portfolioID string, source models.SnapshotSource, date time.Time) (*SnapshotResult, error)
	SnapshotAll(date time.Time) *DailySnapshotsResult
	DeleteManualSnapshots(portfolioID string) error
	GetSnapshots(portfolioID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

// JobStateServicer records and queries the append-only scheduled-job log.
type JobStateServicer interface {
	// Record appends a run entry; runErr may be nil. Recording failures are
	// logged, never propagated, so bookkeeping cannot fail the job itself.
	Record(operation string, ranAt time.Time, runErr error)
	LastRun(operation string) (*models.JobRun, error)
}

// TaskAutomator is the task-automation collaborator (productivity system).
// It lives outside the ledger core; the daily job drives it per user.
type TaskAutomator interface {
	Run(ctx context.Context, userID string) (tasksCreated int, err error)
}

// TaskAutomationResult reports one user's automation pass.
type TaskAutomationResult struct {
	UserID       string `json:"user_id"`
	TasksCreated int    `json:"tasks_created"`
	Error        string `json:"error,omitempty"`
}

// DailyRunResult aggregates the orchestrator's sub-operation outcomes.
type DailyRunResult struct {
	Success             bool                   `json:"success"`
	Date                time.Time              `json:"date"`
	InterestApplied     bool                   `json:"interest_applied"`
	InterestResult      *InterestResult        `json:"interest_result,omitempty"`
	SnapshotsCreated    int                    `json:"snapshots_created"`
	TaskCreationResults []TaskAutomationResult `json:"task_creation_results,omitempty"`
	Errors              []string               `json:"errors"`
}

// DailyJobServicer is the scheduled entry point coordinating accrual,
// snapshotting and task automation.
type DailyJobServicer interface {
	RunDaily(ctx context.Context, now time.Time) *DailyRunResult
}
