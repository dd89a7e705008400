package debtor_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/repository"
	"github.com/luminapos/credit-ledger/internal/service/debtor"
	"github.com/luminapos/credit-ledger/internal/service/ledger"
	"github.com/luminapos/credit-ledger/internal/testutil"
)

func setupServices(t *testing.T, db *sql.DB) (*ledger.Service, *debtor.Service) {
	t.Helper()

	sales := repository.NewCreditSaleRepository(db)
	accounts := repository.NewCreditAccountRepository(db)
	payments := repository.NewPaymentRepository(db)

	return ledger.NewService(sales, accounts, payments, db, 3),
		debtor.NewService(accounts, sales, payments)
}

func TestListDebtors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, queries := setupServices(t, db)
	ctx := context.Background()

	settled := testutil.SeedAccount(t, db, 100_000, 0)
	unlimited := testutil.SeedAccount(t, db, 0, 40_000)
	alerted := testutil.SeedAccount(t, db, 100_000, 75_000)
	overLimit := testutil.SeedAccount(t, db, 100_000, 120_000)

	debtors, err := queries.ListDebtors(ctx)
	require.NoError(t, err)

	byCustomer := make(map[uuid.UUID]debtor.Debtor, len(debtors))
	for _, d := range debtors {
		byCustomer[d.CustomerID] = d
	}

	// Customers with zero debt are not debtors.
	assert.NotContains(t, byCustomer, settled.CustomerID)
	require.Len(t, debtors, 3)

	d := byCustomer[unlimited.CustomerID]
	assert.True(t, d.Unlimited)
	assert.Nil(t, d.AvailableCredit)
	assert.Equal(t, debtor.RiskNormal, d.Risk)

	d = byCustomer[alerted.CustomerID]
	require.NotNil(t, d.AvailableCredit)
	assert.Equal(t, int64(25_000), *d.AvailableCredit)
	assert.Equal(t, debtor.RiskAlert, d.Risk)

	d = byCustomer[overLimit.CustomerID]
	require.NotNil(t, d.AvailableCredit)
	assert.Equal(t, int64(-20_000), *d.AvailableCredit)
	assert.Equal(t, debtor.RiskCritical, d.Risk)
}

func TestGetPaymentHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, queries := setupServices(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := engine.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      100_000,
	})
	require.NoError(t, err)

	amounts := []int64{25_000, 35_000, 40_000}
	for _, amount := range amounts {
		_, err := engine.RegisterPayment(ctx, ledger.RegisterPaymentRequest{
			SaleID:         sale.ID,
			CustomerID:     customerID,
			Amount:         amount,
			Method:         domain.PaymentMethodCash,
			RegisteredBy:   "cashier-1",
			IdempotencyKey: uuid.NewString(),
		})
		require.NoError(t, err)
	}

	history, err := queries.GetPaymentHistory(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Chronological order.
	for i, p := range history {
		assert.Equal(t, amounts[i], p.Amount)
		if i > 0 {
			assert.False(t, p.CreatedAt.Before(history[i-1].CreatedAt))
		}
	}

	_, err = queries.GetPaymentHistory(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestGetAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, queries := setupServices(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	_, err := engine.UpdateCreditLimit(ctx, customerID, 200_000)
	require.NoError(t, err)

	open, err := engine.CreateCreditSale(ctx, ledger.CreateSaleRequest{CustomerID: customerID, Total: 80_000})
	require.NoError(t, err)

	closed, err := engine.CreateCreditSale(ctx, ledger.CreateSaleRequest{CustomerID: customerID, Total: 20_000})
	require.NoError(t, err)
	_, err = engine.RegisterPayment(ctx, ledger.RegisterPaymentRequest{
		SaleID:         closed.ID,
		CustomerID:     customerID,
		Amount:         20_000,
		Method:         domain.PaymentMethodTransfer,
		RegisteredBy:   "cashier-1",
		IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)

	detail, err := queries.GetAccount(ctx, customerID)
	require.NoError(t, err)

	assert.Equal(t, int64(80_000), detail.Account.CurrentDebt)
	require.NotNil(t, detail.AvailableCredit)
	assert.Equal(t, int64(120_000), *detail.AvailableCredit)
	assert.Equal(t, debtor.RiskNormal, detail.Risk)

	// Settled sales drop out of the open list.
	require.Len(t, detail.OpenSales, 1)
	assert.Equal(t, open.ID, detail.OpenSales[0].ID)

	_, err = queries.GetAccount(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
