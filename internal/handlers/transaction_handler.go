package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
	"github.com/humexxx/capital-galaxy/internal/services"
)

// TransactionHandler handles transaction ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	portfolioService   services.PortfolioServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, portfolioService services.PortfolioServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, portfolioService: portfolioService}
}

// CreateTransactionRequest represents the request payload for submitting a transaction.
// Date, source_transaction_id, and target_user_id are honored for admin
// callers only; regular submissions are stamped with the current time and
// always land in the caller's own portfolio.
type CreateTransactionRequest struct {
	InvestmentMethodID  string                 `json:"investment_method_id" binding:"required,uuid"`
	Type                models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount              decimal.Decimal        `json:"amount" binding:"required"`
	Fee                 decimal.Decimal        `json:"fee"`
	Date                *string                `json:"date,omitempty"`
	Notes               string                 `json:"notes" binding:"max=500"`
	SourceTransactionID *string                `json:"source_transaction_id,omitempty" binding:"omitempty,uuid"`
	TargetUserID        *string                `json:"target_user_id,omitempty" binding:"omitempty,uuid"`
}

// CreateTransaction handles submitting a new buy or withdrawal.
// @Summary     Submit transaction
// @Description Submit a buy or withdrawal; admin submissions are auto-approved
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment method not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	admin := isAdmin(c)

	input := services.TransactionInput{
		InvestmentMethodID: req.InvestmentMethodID,
		Type:               req.Type,
		Amount:             req.Amount,
		Fee:                req.Fee,
		Notes:              req.Notes,
	}

	// Backdating, explicit withdrawal sources, and recording on behalf of
	// another user are admin privileges.
	if admin {
		if req.TargetUserID != nil {
			userID = *req.TargetUserID
		}
		if req.Date != nil {
			parsed, parseErr := parseFlexibleTime(*req.Date)
			if parseErr != nil {
				respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, parseErr.Error()))
				return
			}
			input.Date = parsed
		}
		input.SourceTransactionID = req.SourceTransactionID
	}
	if input.Date.IsZero() {
		input.Date = time.Now().UTC()
	}

	transaction, _, err := h.transactionService.CreateTransaction(userID, input, admin)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// GetUserTransactions handles listing the authenticated user's transactions.
// @Summary     List own transactions
// @Description Get paginated transactions for the authenticated user's portfolio
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       type      query string false "Filter by type (buy or withdrawal)"
// @Param       status    query string false "Filter by status"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetUserPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetPortfolioTransactions(portfolio.ID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeBuy, models.TransactionTypeWithdrawal:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "invalid type, must be buy or withdrawal")
		}
	}

	if v := c.Query("status"); v != "" {
		status := models.TransactionStatus(v)
		switch status {
		case models.TransactionStatusPending, models.TransactionStatusApproved,
			models.TransactionStatusRejected, models.TransactionStatusClosed:
			filter.Status = &status
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "invalid status, must be pending, approved, rejected, or closed")
		}
	}

	return filter, nil
}

// GetTransactionByID handles retrieving a single transaction.
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !isAdmin(c) {
		portfolio, err := h.portfolioService.GetUserPortfolio(userID)
		if err != nil || portfolio.ID != transaction.PortfolioID {
			// Hide other users' transactions rather than confirming they exist.
			respondWithError(c, apperrors.ErrTransactionNotFound)
			return
		}
	}

	c.JSON(http.StatusOK, transaction)
}

// ListTransactions handles the admin view over all portfolios.
// @Summary     List all transactions
// @Description Get paginated transactions across all portfolios (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       type      query string false "Filter by type (buy or withdrawal)"
// @Param       status    query string false "Filter by status"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Router      /admin/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ApproveTransaction handles approving a pending transaction.
// @Summary     Approve transaction
// @Description Approve a pending transaction (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Approved transaction"
// @Failure     400 {object} ErrorResponse "Insufficient funds or missing source"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction not pending"
// @Router      /admin/transactions/{id}/approve [post]
func (h *TransactionHandler) ApproveTransaction(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.Approve(c.Param("id"), adminID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// RejectTransaction handles rejecting a pending transaction.
// @Summary     Reject transaction
// @Description Reject a pending transaction (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Rejected transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction not pending"
// @Router      /admin/transactions/{id}/reject [post]
func (h *TransactionHandler) RejectTransaction(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.Reject(c.Param("id"), adminID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}
