package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// interestService applies compound monthly growth to open buy positions.
type interestService struct {
	db *gorm.DB
}

// NewInterestService creates a new InterestServicer.
func NewInterestService(db *gorm.DB) InterestServicer {
	return &interestService{db: db}
}

// ApplyMonthlyInterest compounds every approved buy position with value left
// by its method's fixed monthly rate, rounding to 2 decimal places. When
// beforeDate is given, positions opened after it are excluded; a catch-up run
// must never grow positions opened after the missed month boundary. All
// updates commit in one database transaction.
func (s *interestService) ApplyMonthlyInterest(beforeDate *time.Time) (*InterestResult, error) {
	query := s.db.Preload("InvestmentMethod").
		Where("status = ? AND type = ? AND current_value > 0",
			models.TransactionStatusApproved, models.TransactionTypeBuy)
	if beforeDate != nil {
		query = query.Where("date <= ?", *beforeDate)
	}

	var positions []models.Transaction
	if err := query.Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &InterestResult{}
	if len(positions) == 0 {
		return result, nil
	}

	type update struct {
		id       string
		newValue decimal.Decimal
		close    bool
	}
	updates := make([]update, 0, len(positions))
	for i := range positions {
		p := &positions[i]
		if !p.CurrentValue.Valid {
			continue
		}
		growth := decimal.NewFromInt(1).Add(p.InvestmentMethod.MonthlyRoi.Div(oneHundred))
		newValue := p.CurrentValue.Decimal.Mul(growth).Round(2)
		updates = append(updates, update{
			id:       p.ID,
			newValue: newValue,
			close:    newValue.LessThanOrEqual(decimal.Zero),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			fields := map[string]interface{}{"current_value": u.newValue}
			if u.close {
				fields["status"] = models.TransactionStatusClosed
			}
			if err := tx.Model(&models.Transaction{}).
				Where("id = ?", u.id).
				Updates(fields).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Processed = len(updates)
	for _, u := range updates {
		if u.close {
			result.Closed++
		}
	}
	return result, nil
}
