package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
	"github.com/humexxx/capital-galaxy/internal/services"
)

// SnapshotHandler handles portfolio snapshot requests.
type SnapshotHandler struct {
	snapshotService  services.SnapshotServicer
	interestService  services.InterestServicer
	portfolioService services.PortfolioServicer
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService services.SnapshotServicer, interestService services.InterestServicer, portfolioService services.PortfolioServicer) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService:  snapshotService,
		interestService:  interestService,
		portfolioService: portfolioService,
	}
}

// CreateSnapshotRequest represents the request payload for a manual snapshot.
type CreateSnapshotRequest struct {
	Date          *string               `json:"date,omitempty"`
	Source        models.SnapshotSource `json:"source" binding:"required,manual_snapshot_source"`
	ApplyInterest bool                  `json:"apply_interest"`
}

// GetSnapshots handles retrieving snapshots for the authenticated user's portfolio.
// @Summary     Get portfolio snapshots
// @Description Get paginated portfolio snapshots for a date range
// @Tags        snapshots
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string true  "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string true  "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /snapshots [get]
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
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

	fromStr := c.Query("from_date")
	if fromStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "from_date is required"))
		return
	}
	from, err := parseFlexibleTime(fromStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	toStr := c.Query("to_date")
	if toStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "to_date is required"))
		return
	}
	to, err := parseFlexibleTime(toStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.snapshotService.GetSnapshots(portfolio.ID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateSnapshot handles recording a manual snapshot for a portfolio.
// @Summary     Create manual snapshot
// @Description Record a manual or enforced snapshot for a portfolio, optionally applying interest first (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Portfolio ID"
// @Param       request body CreateSnapshotRequest true "Snapshot parameters"
// @Success     201 {object} services.SnapshotResult "Snapshot recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     409 {object} ErrorResponse "Snapshot suppressed"
// @Router      /admin/portfolios/{id}/snapshots [post]
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	date := time.Now().UTC()
	if req.Date != nil {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, parseErr.Error()))
			return
		}
		date = parsed
	}

	// Resolve the portfolio before compounding: applying interest is a
	// system-wide mutation and must not run for a request that cannot
	// produce a snapshot.
	portfolio, err := h.portfolioService.GetPortfolioByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if req.ApplyInterest {
		if _, err := h.interestService.ApplyMonthlyInterest(nil); err != nil {
			respondWithError(c, err)
			return
		}
	}

	result, err := h.snapshotService.Snapshot(portfolio.ID, req.Source, date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if !result.Created {
		respondWithError(c, apperrors.ErrSnapshotNotCreated)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// DeleteManualSnapshots handles deleting a portfolio's manual snapshots.
// @Summary     Delete manual snapshots
// @Description Delete all snapshots with source manual for a portfolio; enforced snapshots survive (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     204 "Manual snapshots deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /admin/portfolios/{id}/snapshots/manual [delete]
func (h *SnapshotHandler) DeleteManualSnapshots(c *gin.Context) {
	if err := h.snapshotService.DeleteManualSnapshots(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
