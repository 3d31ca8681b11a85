package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humexxx/capital-galaxy/internal/services"
)

// PortfolioHandler handles portfolio requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// GetPortfolio handles retrieving the authenticated user's portfolio.
// @Summary     Get portfolio
// @Description Get the authenticated user's portfolio, creating it on first access
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Portfolio "Portfolio"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetOrCreatePortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetStats handles retrieving the authenticated user's portfolio statistics.
// @Summary     Get portfolio stats
// @Description Get aggregate value, invested, and withdrawn totals for the authenticated user's portfolio
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PortfolioStats "Portfolio statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolio/stats [get]
func (h *PortfolioHandler) GetStats(c *gin.Context) {
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

	stats, err := h.portfolioService.GetStats(portfolio.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListPortfolios handles the admin view over all portfolios.
// @Summary     List portfolios
// @Description Get all portfolios (admin only)
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Portfolios"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Router      /admin/portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	portfolios, err := h.portfolioService.ListPortfolios()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}
