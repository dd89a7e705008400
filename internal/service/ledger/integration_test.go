package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/repository"
	"github.com/luminapos/credit-ledger/internal/service/ledger"
	"github.com/luminapos/credit-ledger/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewCreditSaleRepository(db),
		repository.NewCreditAccountRepository(db),
		repository.NewPaymentRepository(db),
		db,
		3,
	)
}

func registerReq(saleID, customerID uuid.UUID, amount int64) ledger.RegisterPaymentRequest {
	return ledger.RegisterPaymentRequest{
		SaleID:         saleID,
		CustomerID:     customerID,
		Amount:         amount,
		Method:         domain.PaymentMethodCash,
		RegisteredBy:   "cashier-1",
		IdempotencyKey: uuid.NewString(),
	}
}

func TestCreateCreditSale_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      100_000,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100_000), sale.Total)
	assert.Equal(t, int64(0), sale.AmountPaid)
	assert.Equal(t, int64(100_000), sale.AmountPending)
	assert.Equal(t, domain.PaymentStatusPending, sale.Status)

	// Account is created implicitly with unlimited credit and the new debt.
	assert.Equal(t, int64(100_000), testutil.GetCurrentDebt(t, db, customerID))
}

func TestCreateCreditSale_InvalidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	for _, total := range []int64{0, -500} {
		_, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
			CustomerID: uuid.New(),
			Total:      total,
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
}

func TestCreateCreditSale_LimitExceeded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, 200_000, 180_000)

	_, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: acct.CustomerID,
		Total:      50_000,
	})

	require.ErrorIs(t, err, domain.ErrCreditLimitExceeded)
	assert.Equal(t, int64(180_000), testutil.GetCurrentDebt(t, db, acct.CustomerID))

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM credit_sales WHERE customer_id = $1`, acct.CustomerID,
	).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestCreateCreditSale_UnlimitedAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	acct := testutil.SeedAccount(t, db, 0, 5_000_000)

	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: acct.CustomerID,
		Total:      900_000_000,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(900_000_000), sale.AmountPending)
	assert.Equal(t, int64(905_000_000), testutil.GetCurrentDebt(t, db, acct.CustomerID))
}

func TestRegisterPayment_PartialThenSettled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      100_000,
	})
	require.NoError(t, err)

	p1, err := svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, 40_000))
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), p1.Amount)

	paid, pending, status := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(40_000), paid)
	assert.Equal(t, int64(60_000), pending)
	assert.Equal(t, domain.PaymentStatusPartial, status)
	assert.Equal(t, int64(60_000), testutil.GetCurrentDebt(t, db, customerID))

	_, err = svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, 60_000))
	require.NoError(t, err)

	paid, pending, status = testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(100_000), paid)
	assert.Equal(t, int64(0), pending)
	assert.Equal(t, domain.PaymentStatusPaid, status)
	assert.Equal(t, int64(0), testutil.GetCurrentDebt(t, db, customerID))
	assert.Equal(t, int64(100_000), testutil.SumPayments(t, db, sale.ID))

	// The sale is terminal now.
	_, err = svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, 1))
	require.ErrorIs(t, err, domain.ErrSaleAlreadySettled)
}

func TestRegisterPayment_AmountExceedsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      50_000,
	})
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, 50_001))
	require.ErrorIs(t, err, domain.ErrAmountExceedsPending)

	// Nothing changed in any of the three records.
	paid, pending, status := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(0), paid)
	assert.Equal(t, int64(50_000), pending)
	assert.Equal(t, domain.PaymentStatusPending, status)
	assert.Equal(t, int64(50_000), testutil.GetCurrentDebt(t, db, customerID))
	assert.Equal(t, 0, testutil.CountPayments(t, db, sale.ID))
}

func TestRegisterPayment_InvalidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      10_000,
	})
	require.NoError(t, err)

	for _, amount := range []int64{0, -100} {
		_, err := svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, amount))
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
}

func TestRegisterPayment_WrongCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      10_000,
	})
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, registerReq(sale.ID, uuid.New(), 5_000))
	require.ErrorIs(t, err, domain.ErrSaleNotFound)

	_, err = svc.RegisterPayment(ctx, registerReq(uuid.New(), customerID, 5_000))
	require.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestRegisterPayment_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      100_000,
	})
	require.NoError(t, err)

	req := registerReq(sale.ID, customerID, 30_000)

	first, err := svc.RegisterPayment(ctx, req)
	require.NoError(t, err)

	second, err := svc.RegisterPayment(ctx, req)
	require.NoError(t, err)

	// Same record back, exactly one payment, exactly one balance change.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, testutil.CountPayments(t, db, sale.ID))

	paid, pending, _ := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(30_000), paid)
	assert.Equal(t, int64(70_000), pending)
	assert.Equal(t, int64(70_000), testutil.GetCurrentDebt(t, db, customerID))
}

func TestRegisterPayment_ConcurrentHalves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      100_000,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterPayment(ctx, registerReq(sale.ID, customerID, 50_000))
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}

	// No lost update: both halves landed and every invariant holds.
	paid, pending, status := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(100_000), paid)
	assert.Equal(t, int64(0), pending)
	assert.Equal(t, domain.PaymentStatusPaid, status)
	assert.Equal(t, int64(0), testutil.GetCurrentDebt(t, db, customerID))
	assert.Equal(t, 2, testutil.CountPayments(t, db, sale.ID))
	assert.Equal(t, int64(100_000), testutil.SumPayments(t, db, sale.ID))
}

func TestRegisterPayment_DebtUnderflowClamps(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	// Deliberately inconsistent seed: the sale has more pending than the
	// account's recorded debt, as if something upstream lost an adjustment.
	acct := testutil.SeedAccount(t, db, 0, 10_000)
	sale := testutil.SeedSale(t, db, acct.CustomerID, 50_000, 0, 50_000, domain.PaymentStatusPending)

	p, err := svc.RegisterPayment(ctx, registerReq(sale.ID, acct.CustomerID, 30_000))
	require.NoError(t, err)
	require.NotNil(t, p)

	// The payment applied; the debt clamped to zero instead of going negative.
	paid, pending, status := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(30_000), paid)
	assert.Equal(t, int64(20_000), pending)
	assert.Equal(t, domain.PaymentStatusPartial, status)
	assert.Equal(t, int64(0), testutil.GetCurrentDebt(t, db, acct.CustomerID))
}

func TestUpdateCreditLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, err := svc.UpdateCreditLimit(ctx, uuid.New(), -1)
	require.ErrorIs(t, err, domain.ErrInvalidLimit)

	// Upserts an account that does not exist yet.
	customerID := uuid.New()
	acct, err := svc.UpdateCreditLimit(ctx, customerID, 200_000)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), acct.CreditLimit)
	assert.Equal(t, int64(0), acct.CurrentDebt)

	// Lowering the limit below the debt is allowed and touches no sales.
	sale, err := svc.CreateCreditSale(ctx, ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      150_000,
	})
	require.NoError(t, err)

	acct, err = svc.UpdateCreditLimit(ctx, customerID, 100_000)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), acct.CreditLimit)
	assert.Equal(t, int64(150_000), acct.CurrentDebt)

	_, pending, _ := testutil.GetSaleBalances(t, db, sale.ID)
	assert.Equal(t, int64(150_000), pending)
}
