package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
)

// investmentMethodService handles the fixed-ROI strategy reference data.
type investmentMethodService struct {
	db *gorm.DB
}

// NewInvestmentMethodService creates a new InvestmentMethodServicer.
func NewInvestmentMethodService(db *gorm.DB) InvestmentMethodServicer {
	return &investmentMethodService{db: db}
}

// CreateMethod registers a new investment method.
func (s *investmentMethodService) CreateMethod(authorID, name string, riskTier models.RiskTier, monthlyRoi decimal.Decimal) (*models.InvestmentMethod, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "name is required")
	}

	method := &models.InvestmentMethod{
		Name:       name,
		AuthorID:   authorID,
		RiskTier:   riskTier,
		MonthlyRoi: monthlyRoi,
	}
	if err := s.db.Create(method).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return method, nil
}

// GetMethodByID retrieves an investment method by ID.
func (s *investmentMethodService) GetMethodByID(id string) (*models.InvestmentMethod, error) {
	var method models.InvestmentMethod
	if err := s.db.Where("id = ?", id).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMethodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &method, nil
}

// ListMethods returns a paginated list of investment methods.
func (s *investmentMethodService) ListMethods(page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentMethod], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.InvestmentMethod{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var methods []models.InvestmentMethod
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&methods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(methods, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteMethod removes a method. Deletion is restricted: a method referenced
// by any transaction may not be removed.
func (s *investmentMethodService) DeleteMethod(id string) error {
	method, err := s.GetMethodByID(id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).
		Where("investment_method_id = ?", id).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrMethodInUse
	}

	if err := s.db.Delete(method).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
