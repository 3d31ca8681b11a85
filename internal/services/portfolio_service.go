package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
)

// portfolioService handles portfolio identity and aggregate stats.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// GetUserPortfolio returns the user's portfolio, or ErrPortfolioNotFound.
func (s *portfolioService) GetUserPortfolio(userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := s.db.Where("user_id = ?", userID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

func (s *portfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := s.db.First(&portfolio, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// GetOrCreatePortfolio returns the user's portfolio, creating it lazily on
// first use. The unique index on user_id keeps concurrent first transactions
// from producing two portfolios.
func (s *portfolioService) GetOrCreatePortfolio(userID string) (*models.Portfolio, error) {
	portfolio, err := s.GetUserPortfolio(userID)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
		return nil, err
	}

	created := &models.Portfolio{
		UserID: userID,
		Name:   models.DefaultPortfolioName,
	}
	if createErr := s.db.Create(created).Error; createErr != nil {
		// Lost a race on the unique index: fetch the winner.
		if existing, fetchErr := s.GetUserPortfolio(userID); fetchErr == nil {
			return existing, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
	}
	return created, nil
}

// ListPortfolios returns every portfolio in the system.
func (s *portfolioService) ListPortfolios() ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.db.Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolios, nil
}

// GetStats aggregates the portfolio's headline numbers: current value is the
// sum of open buy positions; invested/withdrawn sum approved totals by type.
func (s *portfolioService) GetStats(portfolioID string) (*PortfolioStats, error) {
	var transactions []models.Transaction
	if err := s.db.
		Where("portfolio_id = ? AND status IN ?", portfolioID,
			[]models.TransactionStatus{models.TransactionStatusApproved, models.TransactionStatusClosed}).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &PortfolioStats{
		TotalValue:     decimal.Zero,
		TotalInvested:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	for i := range transactions {
		t := &transactions[i]
		switch t.Type {
		case models.TransactionTypeBuy:
			stats.TotalInvested = stats.TotalInvested.Add(t.Total)
			if t.Status == models.TransactionStatusApproved && t.CurrentValue.Valid {
				stats.TotalValue = stats.TotalValue.Add(t.CurrentValue.Decimal)
			}
		case models.TransactionTypeWithdrawal:
			stats.TotalWithdrawn = stats.TotalWithdrawn.Add(t.Total)
		}
	}
	stats.CostBasis = stats.TotalInvested.Sub(stats.TotalWithdrawn)
	return stats, nil
}
