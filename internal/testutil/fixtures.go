package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/humexxx/capital-galaxy/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal amount string, failing the test on bad input.
func Money(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestAdmin creates a user with the admin flag set.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := CreateTestUserWithEmail(t, db, fmt.Sprintf("admin%d@test.com", nextID()))
	admin.IsAdmin = true
	if err := db.Model(admin).Update("is_admin", true).Error; err != nil {
		t.Fatalf("failed to promote test admin: %v", err)
	}
	return admin
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		FullName: fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPortfolio creates a portfolio owned by the given user.
func CreateTestPortfolio(t *testing.T, db *gorm.DB, userID string) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		UserID: userID,
		Name:   models.DefaultPortfolioName,
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestMethod creates an investment method with the given monthly ROI percentage.
func CreateTestMethod(t *testing.T, db *gorm.DB, authorID, monthlyRoi string) *models.InvestmentMethod {
	t.Helper()

	method := &models.InvestmentMethod{
		Name:       fmt.Sprintf("Test Method %d", nextID()),
		AuthorID:   authorID,
		RiskTier:   models.RiskTierMedium,
		MonthlyRoi: Money(t, monthlyRoi),
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("failed to create test method: %v", err)
	}
	return method
}

// CreateTestBuy creates a pending buy transaction.
func CreateTestBuy(t *testing.T, db *gorm.DB, portfolioID, methodID, amount string) *models.Transaction {
	t.Helper()

	total := Money(t, amount)
	transaction := &models.Transaction{
		PortfolioID:        portfolioID,
		InvestmentMethodID: methodID,
		Type:               models.TransactionTypeBuy,
		Amount:             total,
		Fee:                decimal.Zero,
		Total:              total,
		Date:               time.Now().UTC(),
		Status:             models.TransactionStatusPending,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test buy: %v", err)
	}
	return transaction
}

// CreateApprovedBuy creates an approved buy position with initial and current
// value equal to the amount.
func CreateApprovedBuy(t *testing.T, db *gorm.DB, portfolioID, methodID, amount string) *models.Transaction {
	t.Helper()

	now := time.Now().UTC()
	total := Money(t, amount)
	transaction := &models.Transaction{
		PortfolioID:        portfolioID,
		InvestmentMethodID: methodID,
		Type:               models.TransactionTypeBuy,
		Amount:             total,
		Fee:                decimal.Zero,
		Total:              total,
		Date:               now,
		Status:             models.TransactionStatusApproved,
		ApprovedAt:         &now,
		InitialValue:       decimal.NewNullDecimal(total),
		CurrentValue:       decimal.NewNullDecimal(total),
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create approved buy: %v", err)
	}
	return transaction
}

// CreateTestWithdrawal creates a pending withdrawal against the given source buy.
func CreateTestWithdrawal(t *testing.T, db *gorm.DB, portfolioID, methodID, sourceID, amount string) *models.Transaction {
	t.Helper()

	total := Money(t, amount)
	transaction := &models.Transaction{
		PortfolioID:         portfolioID,
		InvestmentMethodID:  methodID,
		Type:                models.TransactionTypeWithdrawal,
		Amount:              total,
		Fee:                 decimal.Zero,
		Total:               total,
		Date:                time.Now().UTC(),
		Status:              models.TransactionStatusPending,
		SourceTransactionID: &sourceID,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test withdrawal: %v", err)
	}
	return transaction
}
