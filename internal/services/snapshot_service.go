package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
)

// snapshotService computes and records point-in-time portfolio valuations.
type snapshotService struct {
	db *gorm.DB
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB) SnapshotServicer {
	return &snapshotService{db: db}
}

// Snapshot computes the portfolio's total value as of date and persists an
// immutable snapshot row, unless the zero-value dedup policy says to skip:
// a zero total is only recorded when the most recent prior snapshot was
// positive, so the transition to zero is captured exactly once instead of
// flooding the history with empty rows.
func (s *snapshotService) Snapshot(portfolioID string, source models.SnapshotSource, date time.Time) (*SnapshotResult, error) {
	var count int64
	if err := s.db.Model(&models.Portfolio{}).Where("id = ?", portfolioID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrPortfolioNotFound
	}

	// Only positions that existed by the snapshot date count, so backfilled
	// snapshots reflect the portfolio as it was.
	var totalValue decimal.Decimal
	if err := s.db.Model(&models.Transaction{}).
		Where("portfolio_id = ? AND status = ? AND type = ? AND date <= ?",
			portfolioID, models.TransactionStatusApproved, models.TransactionTypeBuy, date).
		Select("COALESCE(SUM(current_value), 0)").
		Scan(&totalValue).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totalValue = totalValue.Round(2)

	result := &SnapshotResult{TotalValue: totalValue}

	if !totalValue.IsPositive() {
		prior, err := s.latestSnapshot(portfolioID, date)
		if err != nil {
			return nil, err
		}
		if prior == nil || !prior.TotalValue.IsPositive() {
			return result, nil
		}
	}

	snapshot := &models.PortfolioSnapshot{
		PortfolioID: portfolioID,
		Date:        date,
		TotalValue:  totalValue,
		Source:      source,
	}
	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result.Created = true
	return result, nil
}

// latestSnapshot returns the most recent snapshot at or before date, or nil.
func (s *snapshotService) latestSnapshot(portfolioID string, date time.Time) (*models.PortfolioSnapshot, error) {
	var prior models.PortfolioSnapshot
	err := s.db.Where("portfolio_id = ? AND date <= ?", portfolioID, date).
		Order("date DESC").Order("created_at DESC").
		First(&prior).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &prior, nil
}

// SnapshotAll records a system_cron snapshot for every portfolio. Failures
// are isolated per portfolio so one bad portfolio never blocks the rest.
func (s *snapshotService) SnapshotAll(date time.Time) *DailySnapshotsResult {
	result := &DailySnapshotsResult{Date: date}

	var portfolios []models.Portfolio
	if err := s.db.Find(&portfolios).Error; err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("listing portfolios: %v", err))
		return result
	}
	result.TotalPortfolios = len(portfolios)

	for i := range portfolios {
		res, err := s.Snapshot(portfolios[i].ID, models.SnapshotSourceSystemCron, date)
		if err != nil {
			logger.Get().Errorw("daily snapshot failed",
				"portfolio_id", portfolios[i].ID,
				"error", err.Error(),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("portfolio %s: %v", portfolios[i].ID, err))
			continue
		}
		if res.Created {
			result.Created++
		}
	}
	return result
}

// DeleteManualSnapshots bulk-deletes the portfolio's manual snapshots.
// Rows with source admin_enforce are administrator-pinned historical truth
// and survive this call.
func (s *snapshotService) DeleteManualSnapshots(portfolioID string) error {
	if err := s.db.Where("portfolio_id = ? AND source = ?", portfolioID, models.SnapshotSourceManual).
		Delete(&models.PortfolioSnapshot{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetSnapshots returns paginated snapshots for a portfolio within a date range.
func (s *snapshotService) GetSnapshots(portfolioID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PortfolioSnapshot{}).
		Where("portfolio_id = ? AND date >= ? AND date <= ?", portfolioID, from, to)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PortfolioSnapshot
	if err := base.Order("date DESC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
