package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
)

const paymentColumns = `id, sale_id, customer_id, amount, method,
	registered_by, notes, idempotency_key, created_at`

// PaymentRepository is the append-only payment ledger. Rows are never updated
// or deleted; the unique idempotency key makes Append safe to retry.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Append inserts the payment record. A previously-seen idempotency key leaves
// the ledger untouched and returns domain.ErrDuplicateIdempotencyKey so the
// caller can fetch and return the original record.
func (r *PaymentRepository) Append(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			id, sale_id, customer_id, amount, method,
			registered_by, notes, idempotency_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		payment.ID, payment.SaleID, payment.CustomerID, payment.Amount, payment.Method,
		payment.RegisteredBy, payment.Notes, payment.IdempotencyKey, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Append: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Append: %w", domain.ErrDuplicateIdempotencyKey)
	}
	return nil
}

// GetByIdempotencyKey returns (nil, nil) when the key has never been seen.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetByIdempotencyKey: %w", err)
	}
	return p, nil
}

// ListBySale returns the sale's audit trail in chronological order.
func (r *PaymentRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE sale_id = $1 ORDER BY created_at`, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySale: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBySale: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBySale: rows: %w", err)
	}
	return payments, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.ID, &p.SaleID, &p.CustomerID, &p.Amount, &p.Method,
		&p.RegisteredBy, &p.Notes, &p.IdempotencyKey, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
