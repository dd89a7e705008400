package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
)

const accountColumns = `customer_id, credit_limit, current_debt, created_at, updated_at`

// CreditAccountRepository is the credit account registry: per-customer limit
// and aggregate debt. Debt is only ever moved through AdjustDebt, inside the
// reconciliation engine's transaction.
type CreditAccountRepository struct {
	db *sql.DB
}

func NewCreditAccountRepository(db *sql.DB) *CreditAccountRepository {
	return &CreditAccountRepository{db: db}
}

func (r *CreditAccountRepository) Get(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM credit_accounts WHERE customer_id = $1`, customerID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

// GetOrCreateForUpdate locks the customer's account row for the duration of
// the transaction, creating it with default limit 0 (unlimited) and zero debt
// on first use. The row lock serializes credit admission per customer.
func (r *CreditAccountRepository) GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (*domain.CreditAccount, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_accounts (customer_id) VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: insert: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM credit_accounts WHERE customer_id = $1 FOR UPDATE`, customerID,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: %w", err)
	}
	return a, nil
}

// AdjustDebt applies delta to the customer's aggregate debt as a single
// conditional UPDATE. A decrement that would drive the debt negative clamps to
// zero and returns domain.ErrDebtUnderflow alongside the clamped value; the
// caller decides whether that is fatal (it is telemetry, the state stays sane).
func (r *CreditAccountRepository) AdjustDebt(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, delta int64) (int64, error) {
	var newDebt int64
	err := tx.QueryRowContext(ctx,
		`UPDATE credit_accounts
		SET current_debt = current_debt + $1, updated_at = now()
		WHERE customer_id = $2 AND current_debt + $1 >= 0
		RETURNING current_debt`,
		delta, customerID,
	).Scan(&newDebt)
	if err == nil {
		return newDebt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("AdjustDebt: %w", err)
	}

	// Either the account is missing or the decrement underflowed.
	err = tx.QueryRowContext(ctx,
		`UPDATE credit_accounts
		SET current_debt = 0, updated_at = now()
		WHERE customer_id = $1
		RETURNING current_debt`,
		customerID,
	).Scan(&newDebt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("AdjustDebt: %w", domain.ErrCustomerNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("AdjustDebt: clamp: %w", err)
	}
	return newDebt, fmt.Errorf("AdjustDebt: delta %d: %w", delta, domain.ErrDebtUnderflow)
}

// SetCreditLimit upserts the account so a limit can be granted before the
// customer's first credit sale. It never touches sale balances; lowering the
// limit below the current debt simply leaves the account over limit.
func (r *CreditAccountRepository) SetCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit int64) (*domain.CreditAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO credit_accounts (customer_id, credit_limit)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO UPDATE
		SET credit_limit = EXCLUDED.credit_limit, updated_at = now()
		RETURNING `+accountColumns,
		customerID, newLimit,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("SetCreditLimit: %w", err)
	}
	return a, nil
}

func (r *CreditAccountRepository) ListDebtors(ctx context.Context) ([]domain.CreditAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM credit_accounts
		WHERE current_debt > 0 ORDER BY current_debt DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDebtors: %w", err)
	}
	defer rows.Close()

	var accounts []domain.CreditAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDebtors: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDebtors: rows: %w", err)
	}
	return accounts, nil
}

func scanAccount(s scanner) (*domain.CreditAccount, error) {
	var a domain.CreditAccount
	err := s.Scan(&a.CustomerID, &a.CreditLimit, &a.CurrentDebt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
