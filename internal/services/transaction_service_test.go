package services

import (
	"testing"
	"time"

	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/pagination"
	"github.com/humexxx/capital-galaxy/internal/testutil"

	"gorm.io/gorm"
)

func newTransactionService(db *gorm.DB) TransactionServicer {
	portfolioSvc := NewPortfolioService(db)
	methodSvc := NewInvestmentMethodService(db)
	snapshotSvc := NewSnapshotService(db)
	return NewTransactionService(db, portfolioSvc, methodSvc, snapshotSvc)
}

func buyInput(methodID, amount string, t *testing.T) TransactionInput {
	t.Helper()
	return TransactionInput{
		InvestmentMethodID: methodID,
		Type:               models.TransactionTypeBuy,
		Amount:             testutil.Money(t, amount),
		Date:               time.Now().UTC(),
	}
}

func TestCreateTransaction(t *testing.T) {
	t.Run("user_submission_is_pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		transaction, portfolio, err := txSvc.CreateTransaction(user.ID, buyInput(method.ID, "1000.00", t), false)
		testutil.AssertNoError(t, err)

		if transaction.Status != models.TransactionStatusPending {
			t.Errorf("expected pending status, got %s", transaction.Status)
		}
		if transaction.CurrentValue.Valid {
			t.Error("pending buy should not have a current value yet")
		}
		if portfolio.UserID != user.ID {
			t.Errorf("expected portfolio owned by %s, got %s", user.ID, portfolio.UserID)
		}
	})

	t.Run("total_is_amount_plus_fee", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		input := buyInput(method.ID, "1000.00", t)
		input.Fee = testutil.Money(t, "2.50")
		transaction, _, err := txSvc.CreateTransaction(user.ID, input, false)
		testutil.AssertNoError(t, err)

		if !transaction.Total.Equal(testutil.Money(t, "1002.50")) {
			t.Errorf("expected total 1002.50, got %s", transaction.Total)
		}
	})

	t.Run("lazily_creates_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		var before int64
		db.Model(&models.Portfolio{}).Where("user_id = ?", user.ID).Count(&before)
		if before != 0 {
			t.Fatalf("expected no portfolio before first transaction, got %d", before)
		}

		_, portfolio, err := txSvc.CreateTransaction(user.ID, buyInput(method.ID, "100.00", t), false)
		testutil.AssertNoError(t, err)
		if portfolio.Name != models.DefaultPortfolioName {
			t.Errorf("expected default portfolio name, got %q", portfolio.Name)
		}
	})

	t.Run("admin_buy_is_auto_approved", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		transaction, portfolio, err := txSvc.CreateTransaction(admin.ID, buyInput(method.ID, "500.00", t), true)
		testutil.AssertNoError(t, err)

		if transaction.Status != models.TransactionStatusApproved {
			t.Fatalf("expected approved status, got %s", transaction.Status)
		}
		if transaction.ApprovedBy == nil || *transaction.ApprovedBy != admin.ID {
			t.Error("expected approved_by to record the admin")
		}
		if !transaction.InitialValue.Decimal.Equal(testutil.Money(t, "500.00")) {
			t.Errorf("expected initial value 500.00, got %s", transaction.InitialValue.Decimal)
		}
		if !transaction.CurrentValue.Decimal.Equal(testutil.Money(t, "500.00")) {
			t.Errorf("expected current value 500.00, got %s", transaction.CurrentValue.Decimal)
		}

		// Auto-approval records a provenance snapshot.
		var snapshots []models.PortfolioSnapshot
		db.Where("portfolio_id = ?", portfolio.ID).Find(&snapshots)
		if len(snapshots) != 1 {
			t.Fatalf("expected 1 snapshot after auto-approval, got %d", len(snapshots))
		}
		if snapshots[0].Source != models.SnapshotSourceAdminApproval {
			t.Errorf("expected admin_approval source, got %s", snapshots[0].Source)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		_, _, err := txSvc.CreateTransaction(user.ID, buyInput(method.ID, "0", t), false)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("negative_fee", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")

		input := buyInput(method.ID, "100.00", t)
		input.Fee = testutil.Money(t, "-1.00")
		_, _, err := txSvc.CreateTransaction(user.ID, input, false)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_method", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, _, err := txSvc.CreateTransaction(user.ID, buyInput("00000000-0000-0000-0000-000000000000", "100.00", t), false)
		testutil.AssertAppError(t, err, "METHOD_NOT_FOUND")
	})
}

func TestApprove(t *testing.T) {
	t.Run("approve_buy_opens_position", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		buy := testutil.CreateTestBuy(t, db, portfolio.ID, method.ID, "1000.00")

		approved, err := txSvc.Approve(buy.ID, admin.ID)
		testutil.AssertNoError(t, err)

		if approved.Status != models.TransactionStatusApproved {
			t.Fatalf("expected approved, got %s", approved.Status)
		}
		if !approved.InitialValue.Decimal.Equal(testutil.Money(t, "1000.00")) {
			t.Errorf("expected initial value 1000.00, got %s", approved.InitialValue.Decimal)
		}
		if approved.ApprovedAt == nil {
			t.Error("expected approved_at to be set")
		}
	})

	t.Run("approve_withdrawal_draws_down_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		source := testutil.CreateApprovedBuy(t, db, portfolio.ID, method.ID, "1000.00")
		withdrawal := testutil.CreateTestWithdrawal(t, db, portfolio.ID, method.ID, source.ID, "300.00")

		approved, err := txSvc.Approve(withdrawal.ID, admin.ID)
		testutil.AssertNoError(t, err)
		if approved.Status != models.TransactionStatusApproved {
			t.Fatalf("expected approved, got %s", approved.Status)
		}

		var updated models.Transaction
		testutil.AssertNoError(t, db.First(&updated, "id = ?", source.ID).Error)
		if !updated.CurrentValue.Decimal.Equal(testutil.Money(t, "700.00")) {
			t.Errorf("expected source value 700.00, got %s", updated.CurrentValue.Decimal)
		}
		if updated.Status != models.TransactionStatusApproved {
			t.Errorf("source should stay approved, got %s", updated.Status)
		}
		if len(updated.WithdrawalTransactionIDs) != 1 || updated.WithdrawalTransactionIDs[0] != withdrawal.ID {
			t.Errorf("expected withdrawal linkage [%s], got %v", withdrawal.ID, updated.WithdrawalTransactionIDs)
		}
	})

	t.Run("insufficient_funds_leaves_source_unchanged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		source := testutil.CreateApprovedBuy(t, db, portfolio.ID, method.ID, "100.00")
		withdrawal := testutil.CreateTestWithdrawal(t, db, portfolio.ID, method.ID, source.ID, "150.00")

		_, err := txSvc.Approve(withdrawal.ID, admin.ID)
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		var unchangedSource, unchangedWithdrawal models.Transaction
		testutil.AssertNoError(t, db.First(&unchangedSource, "id = ?", source.ID).Error)
		testutil.AssertNoError(t, db.First(&unchangedWithdrawal, "id = ?", withdrawal.ID).Error)
		if !unchangedSource.CurrentValue.Decimal.Equal(testutil.Money(t, "100.00")) {
			t.Errorf("source value should stay 100.00, got %s", unchangedSource.CurrentValue.Decimal)
		}
		if len(unchangedSource.WithdrawalTransactionIDs) != 0 {
			t.Errorf("source linkage should stay empty, got %v", unchangedSource.WithdrawalTransactionIDs)
		}
		if unchangedWithdrawal.Status != models.TransactionStatusPending {
			t.Errorf("withdrawal should stay pending, got %s", unchangedWithdrawal.Status)
		}
	})

	t.Run("exact_drawdown_closes_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		source := testutil.CreateApprovedBuy(t, db, portfolio.ID, method.ID, "250.00")
		withdrawal := testutil.CreateTestWithdrawal(t, db, portfolio.ID, method.ID, source.ID, "250.00")

		_, err := txSvc.Approve(withdrawal.ID, admin.ID)
		testutil.AssertNoError(t, err)

		var updated models.Transaction
		testutil.AssertNoError(t, db.First(&updated, "id = ?", source.ID).Error)
		if updated.Status != models.TransactionStatusClosed {
			t.Errorf("expected closed source, got %s", updated.Status)
		}
		if !updated.CurrentValue.Decimal.IsZero() {
			t.Errorf("expected zero current value, got %s", updated.CurrentValue.Decimal)
		}
	})

	t.Run("withdrawal_without_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)

		withdrawal := &models.Transaction{
			PortfolioID:        portfolio.ID,
			InvestmentMethodID: method.ID,
			Type:               models.TransactionTypeWithdrawal,
			Amount:             testutil.Money(t, "50.00"),
			Total:              testutil.Money(t, "50.00"),
			Date:               time.Now().UTC(),
			Status:             models.TransactionStatusPending,
		}
		testutil.AssertNoError(t, db.Create(withdrawal).Error)

		_, err := txSvc.Approve(withdrawal.ID, admin.ID)
		testutil.AssertAppError(t, err, "MISSING_SOURCE")
	})

	t.Run("withdrawal_from_closed_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		source := testutil.CreateApprovedBuy(t, db, portfolio.ID, method.ID, "100.00")
		testutil.AssertNoError(t, db.Model(source).Update("status", models.TransactionStatusClosed).Error)
		withdrawal := testutil.CreateTestWithdrawal(t, db, portfolio.ID, method.ID, source.ID, "50.00")

		_, err := txSvc.Approve(withdrawal.ID, admin.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("approve_twice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		buy := testutil.CreateTestBuy(t, db, portfolio.ID, method.ID, "100.00")

		_, err := txSvc.Approve(buy.ID, admin.ID)
		testutil.AssertNoError(t, err)

		_, err = txSvc.Approve(buy.ID, admin.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("unknown_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)

		_, err := txSvc.Approve("00000000-0000-0000-0000-000000000000", admin.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestReject(t *testing.T) {
	t.Run("reject_pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		buy := testutil.CreateTestBuy(t, db, portfolio.ID, method.ID, "100.00")

		rejected, err := txSvc.Reject(buy.ID, admin.ID)
		testutil.AssertNoError(t, err)
		if rejected.Status != models.TransactionStatusRejected {
			t.Errorf("expected rejected, got %s", rejected.Status)
		}
		if rejected.RejectedBy == nil || *rejected.RejectedBy != admin.ID {
			t.Error("expected rejected_by to record the admin")
		}
		if rejected.CurrentValue.Valid {
			t.Error("rejected buy must not hold a position value")
		}
	})

	t.Run("reject_after_approve", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		buy := testutil.CreateTestBuy(t, db, portfolio.ID, method.ID, "100.00")

		_, err := txSvc.Approve(buy.ID, admin.ID)
		testutil.AssertNoError(t, err)

		_, err = txSvc.Reject(buy.ID, admin.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("filters_by_type_and_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolio := testutil.CreateTestPortfolio(t, db, user.ID)
		testutil.CreateTestBuy(t, db, portfolio.ID, method.ID, "100.00")
		source := testutil.CreateApprovedBuy(t, db, portfolio.ID, method.ID, "200.00")
		testutil.CreateTestWithdrawal(t, db, portfolio.ID, method.ID, source.ID, "50.00")

		buyType := models.TransactionTypeBuy
		approvedStatus := models.TransactionStatusApproved
		result, err := txSvc.GetPortfolioTransactions(portfolio.ID, pagination.PageRequest{}, TransactionFilter{
			Type:   &buyType,
			Status: &approvedStatus,
		})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 approved buy, got %d", result.TotalItems)
		}
	})

	t.Run("admin_list_spans_portfolios", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTransactionService(db)
		admin := testutil.CreateTestAdmin(t, db)
		userA := testutil.CreateTestUser(t, db)
		userB := testutil.CreateTestUser(t, db)
		method := testutil.CreateTestMethod(t, db, admin.ID, "0.70")
		portfolioA := testutil.CreateTestPortfolio(t, db, userA.ID)
		portfolioB := testutil.CreateTestPortfolio(t, db, userB.ID)
		testutil.CreateTestBuy(t, db, portfolioA.ID, method.ID, "100.00")
		testutil.CreateTestBuy(t, db, portfolioB.ID, method.ID, "200.00")

		result, err := txSvc.ListTransactions(pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions across portfolios, got %d", result.TotalItems)
		}
	})
}
