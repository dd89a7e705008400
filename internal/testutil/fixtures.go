package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
)

// SeedAccount inserts a credit account directly, bypassing the engine.
func SeedAccount(t *testing.T, db *sql.DB, creditLimit, currentDebt int64) *domain.CreditAccount {
	t.Helper()

	a := &domain.CreditAccount{
		CustomerID:  uuid.New(),
		CreditLimit: creditLimit,
		CurrentDebt: currentDebt,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO credit_accounts (customer_id, credit_limit, current_debt, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.CustomerID, a.CreditLimit, a.CurrentDebt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", a.CustomerID, err)
	}
	return a
}

// SeedSale inserts a credit sale row directly. The caller is responsible for
// keeping the account's current_debt coherent when that matters to the test.
func SeedSale(t *testing.T, db *sql.DB, customerID uuid.UUID, total, paid, pending int64, status domain.PaymentStatus) *domain.CreditSale {
	t.Helper()

	now := time.Now().UTC()
	s := &domain.CreditSale{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Total:         total,
		AmountPaid:    paid,
		AmountPending: pending,
		Status:        status,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO credit_sales (id, customer_id, total, amount_paid, amount_pending, payment_status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.CustomerID, s.Total, s.AmountPaid, s.AmountPending, s.Status, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed sale for %s: %v", customerID, err)
	}
	return s
}

func GetCurrentDebt(t *testing.T, db *sql.DB, customerID uuid.UUID) int64 {
	t.Helper()

	var debt int64
	err := db.QueryRow(`SELECT current_debt FROM credit_accounts WHERE customer_id = $1`, customerID).Scan(&debt)
	if err != nil {
		t.Fatalf("get current debt %s: %v", customerID, err)
	}
	return debt
}

func GetSaleBalances(t *testing.T, db *sql.DB, saleID uuid.UUID) (paid, pending int64, status domain.PaymentStatus) {
	t.Helper()

	err := db.QueryRow(
		`SELECT amount_paid, amount_pending, payment_status FROM credit_sales WHERE id = $1`, saleID,
	).Scan(&paid, &pending, &status)
	if err != nil {
		t.Fatalf("get sale balances %s: %v", saleID, err)
	}
	return paid, pending, status
}

func CountPayments(t *testing.T, db *sql.DB, saleID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payments WHERE sale_id = $1`, saleID).Scan(&count)
	if err != nil {
		t.Fatalf("count payments for sale %s: %v", saleID, err)
	}
	return count
}

// SumPayments returns the total amount recorded against a sale, for checking
// the ledger-vs-balance invariant.
func SumPayments(t *testing.T, db *sql.DB, saleID uuid.UUID) int64 {
	t.Helper()

	var sum int64
	err := db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE sale_id = $1`, saleID).Scan(&sum)
	if err != nil {
		t.Fatalf("sum payments for sale %s: %v", saleID, err)
	}
	return sum
}
