// Package ledger implements the reconciliation engine: the only writer of
// credit sale balances, customer debt, and the payment audit trail. Every
// mutation commits as a single transaction or not at all.
package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
)

const defaultMaxAttempts = 3

type saleRepo interface {
	Create(ctx context.Context, tx *sql.Tx, sale *domain.CreditSale) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditSale, error)
	UpdateBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, newPaid, newPending int64, status domain.PaymentStatus, newVersion int64) error
}

type accountRepo interface {
	Get(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error)
	GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (*domain.CreditAccount, error)
	AdjustDebt(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, delta int64) (int64, error)
	SetCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit int64) (*domain.CreditAccount, error)
}

type paymentRepo interface {
	Append(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
}

type Service struct {
	sales       saleRepo
	accounts    accountRepo
	payments    paymentRepo
	db          *sql.DB
	maxAttempts int
}

func NewService(sales saleRepo, accounts accountRepo, payments paymentRepo, db *sql.DB, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Service{
		sales:       sales,
		accounts:    accounts,
		payments:    payments,
		db:          db,
		maxAttempts: maxAttempts,
	}
}
