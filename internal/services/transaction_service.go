package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
)

// transactionService owns the transaction lifecycle: creation, approval,
// rejection, withdrawal linkage and closure.
type transactionService struct {
	db               *gorm.DB
	portfolioService PortfolioServicer
	methodService    InvestmentMethodServicer
	snapshotService  SnapshotServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, portfolioService PortfolioServicer, methodService InvestmentMethodServicer, snapshotService SnapshotServicer) TransactionServicer {
	return &transactionService{
		db:               db,
		portfolioService: portfolioService,
		methodService:    methodService,
		snapshotService:  snapshotService,
	}
}

// CreateTransaction records a new buy or withdrawal against the user's
// portfolio, creating the portfolio lazily if absent. Administrator
// submissions are approved immediately: a buy opens its position, a
// withdrawal draws its source down through the same path as Approve.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput, isAdmin bool) (*models.Transaction, *models.Portfolio, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if input.Fee.IsNegative() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "fee must not be negative")
	}
	if input.Type != models.TransactionTypeBuy && input.Type != models.TransactionTypeWithdrawal {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "unsupported transaction type")
	}
	if input.Date.IsZero() {
		input.Date = time.Now().UTC()
	}

	// The method must exist; the foreign key is restricted so it can never
	// disappear out from under an existing transaction.
	if _, err := s.methodService.GetMethodByID(input.InvestmentMethodID); err != nil {
		return nil, nil, err
	}

	portfolio, err := s.portfolioService.GetOrCreatePortfolio(userID)
	if err != nil {
		return nil, nil, err
	}

	total := input.Amount.Add(input.Fee)

	transaction := &models.Transaction{
		PortfolioID:         portfolio.ID,
		InvestmentMethodID:  input.InvestmentMethodID,
		Type:                input.Type,
		Amount:              input.Amount,
		Fee:                 input.Fee,
		Total:               total,
		Date:                input.Date,
		Notes:               input.Notes,
		Status:              models.TransactionStatusPending,
		SourceTransactionID: input.SourceTransactionID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if !isAdmin {
			return txCreate(tx, transaction)
		}

		now := time.Now().UTC()
		transaction.Status = models.TransactionStatusApproved
		transaction.ApprovedAt = &now
		transaction.ApprovedBy = &userID

		if transaction.Type == models.TransactionTypeBuy {
			transaction.InitialValue = decimal.NewNullDecimal(total)
			transaction.CurrentValue = decimal.NewNullDecimal(total)
			return txCreate(tx, transaction)
		}

		// Withdrawal created by an admin: persist it first so the source's
		// linkage list can reference its id, then draw the source down.
		if txErr := txCreate(tx, transaction); txErr != nil {
			return txErr
		}
		return s.drawDownSource(tx, transaction)
	})
	if err != nil {
		return nil, nil, err
	}

	if isAdmin {
		s.recordApprovalSnapshot(portfolio.ID)
	}

	return transaction, portfolio, nil
}

// Approve transitions a pending transaction to approved. The whole
// operation, including the withdrawal source's read-modify-write, commits in
// one database transaction; the source row is locked for update so two
// concurrent approvals against the same source serialize.
func (s *transactionService) Approve(transactionID, adminID string) (*models.Transaction, error) {
	var transaction models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", transactionID).
			First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if transaction.Status != models.TransactionStatusPending {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "only pending transactions can be approved")
		}

		now := time.Now().UTC()
		transaction.Status = models.TransactionStatusApproved
		transaction.ApprovedAt = &now
		transaction.ApprovedBy = &adminID

		if transaction.Type == models.TransactionTypeBuy {
			transaction.InitialValue = decimal.NewNullDecimal(transaction.Total)
			transaction.CurrentValue = decimal.NewNullDecimal(transaction.Total)
			return txSave(tx, &transaction)
		}

		if txErr := s.drawDownSource(tx, &transaction); txErr != nil {
			return txErr
		}
		return txSave(tx, &transaction)
	})
	if err != nil {
		return nil, err
	}

	s.recordApprovalSnapshot(transaction.PortfolioID)
	return &transaction, nil
}

// drawDownSource decrements a withdrawal's source buy position by the
// withdrawal's total, closing the source when nothing remains. Must run
// inside the caller's database transaction; the withdrawal is expected to be
// persisted already so its id can be linked.
func (s *transactionService) drawDownSource(tx *gorm.DB, withdrawal *models.Transaction) error {
	if withdrawal.SourceTransactionID == nil {
		return apperrors.ErrMissingSource
	}

	var source models.Transaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND type = ?", *withdrawal.SourceTransactionID, models.TransactionTypeBuy).
		First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMissingSource
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if source.Status != models.TransactionStatusApproved || !source.CurrentValue.Valid {
		return apperrors.WithMessage(apperrors.ErrInvalidState, "source transaction is not an open position")
	}
	if source.CurrentValue.Decimal.LessThan(withdrawal.Total) {
		return apperrors.ErrInsufficientFunds
	}

	newValue := source.CurrentValue.Decimal.Sub(withdrawal.Total)
	source.CurrentValue = decimal.NewNullDecimal(newValue)
	source.WithdrawalTransactionIDs = append(source.WithdrawalTransactionIDs, withdrawal.ID)
	if newValue.LessThanOrEqual(decimal.Zero) {
		source.Status = models.TransactionStatusClosed
	}

	return txSave(tx, &source)
}

// Reject transitions a pending transaction to rejected. No value side
// effects; rejecting a non-pending transaction is an error.
func (s *transactionService) Reject(transactionID, adminID string) (*models.Transaction, error) {
	var transaction models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", transactionID).
			First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if transaction.Status != models.TransactionStatusPending {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "only pending transactions can be rejected")
		}

		now := time.Now().UTC()
		transaction.Status = models.TransactionStatusRejected
		transaction.RejectedAt = &now
		transaction.RejectedBy = &adminID
		return txSave(tx, &transaction)
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetTransactionByID retrieves a transaction with its investment method.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("InvestmentMethod").
		Where("id = ?", transactionID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// GetPortfolioTransactions retrieves a paginated, filtered list of
// transactions for one portfolio.
func (s *transactionService) GetPortfolioTransactions(portfolioID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("InvestmentMethod").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListTransactions retrieves a paginated, filtered list across all
// portfolios (administrator view).
func (s *transactionService) ListTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("InvestmentMethod").Preload("Portfolio").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

// recordApprovalSnapshot refreshes the portfolio's valuation after an
// approval. Best-effort: the ledger write has already committed, so a
// snapshot failure is logged and never surfaced.
func (s *transactionService) recordApprovalSnapshot(portfolioID string) {
	if _, err := s.snapshotService.Snapshot(portfolioID, models.SnapshotSourceAdminApproval, time.Now().UTC()); err != nil {
		logger.Get().Errorw("post-approval snapshot failed",
			"portfolio_id", portfolioID,
			"error", err.Error(),
		)
	}
}

func txCreate(tx *gorm.DB, value interface{}) error {
	if err := tx.Create(value).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func txSave(tx *gorm.DB, value interface{}) error {
	if err := tx.Save(value).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
