package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
	"github.com/humexxx/capital-galaxy/internal/services"
)

// InvestmentMethodHandler handles investment method requests.
type InvestmentMethodHandler struct {
	methodService services.InvestmentMethodServicer
}

// NewInvestmentMethodHandler creates a new InvestmentMethodHandler.
func NewInvestmentMethodHandler(methodService services.InvestmentMethodServicer) *InvestmentMethodHandler {
	return &InvestmentMethodHandler{methodService: methodService}
}

// CreateMethodRequest represents the request payload for creating an investment method.
type CreateMethodRequest struct {
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	RiskTier   models.RiskTier `json:"risk_tier" binding:"required,risk_tier"`
	MonthlyRoi decimal.Decimal `json:"monthly_roi" binding:"required"`
}

// CreateMethod handles creating a new investment method.
// @Summary     Create investment method
// @Description Create a named fixed-ROI investment method (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMethodRequest true "Method details"
// @Success     201 {object} models.InvestmentMethod "Method created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Router      /admin/methods [post]
func (h *InvestmentMethodHandler) CreateMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	method, err := h.methodService.CreateMethod(userID, req.Name, req.RiskTier, req.MonthlyRoi)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, method)
}

// ListMethods handles listing investment methods.
// @Summary     List investment methods
// @Description Get paginated investment methods ordered by name
// @Tags        methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.InvestmentMethod] "Paginated methods"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /methods [get]
func (h *InvestmentMethodHandler) ListMethods(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.methodService.ListMethods(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMethodByID handles retrieving a single investment method.
// @Summary     Get investment method
// @Description Get a specific investment method by ID
// @Tags        methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Method ID"
// @Success     200 {object} models.InvestmentMethod "Method details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Method not found"
// @Router      /methods/{id} [get]
func (h *InvestmentMethodHandler) GetMethodByID(c *gin.Context) {
	method, err := h.methodService.GetMethodByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, method)
}

// DeleteMethod handles deleting an investment method.
// @Summary     Delete investment method
// @Description Delete an investment method with no referencing transactions (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Method ID"
// @Success     204 "Method deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Method not found"
// @Failure     409 {object} ErrorResponse "Method referenced by transactions"
// @Router      /admin/methods/{id} [delete]
func (h *InvestmentMethodHandler) DeleteMethod(c *gin.Context) {
	if err := h.methodService.DeleteMethod(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
