package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
)

const saleColumns = `id, customer_id, total, amount_paid, amount_pending,
	payment_status, version, due_date, created_at, updated_at`

type CreditSaleRepository struct {
	db *sql.DB
}

func NewCreditSaleRepository(db *sql.DB) *CreditSaleRepository {
	return &CreditSaleRepository{db: db}
}

func (r *CreditSaleRepository) Create(ctx context.Context, tx *sql.Tx, sale *domain.CreditSale) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_sales (
			id, customer_id, total, amount_paid, amount_pending,
			payment_status, version, due_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sale.ID, sale.CustomerID, sale.Total, sale.AmountPaid, sale.AmountPending,
		sale.Status, sale.Version, sale.DueDate, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CreditSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditSale, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM credit_sales WHERE id = $1`, id,
	)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrSaleNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return s, nil
}

// UpdateBalances is the conditional write at the heart of the optimistic
// concurrency scheme: it only lands if the row still carries the version the
// caller read. Zero rows affected means a concurrent writer got there first.
func (r *CreditSaleRepository) UpdateBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, newPaid, newPending int64, status domain.PaymentStatus, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_sales
		SET amount_paid = $1, amount_pending = $2, payment_status = $3,
			version = $4, updated_at = now()
		WHERE id = $5 AND version = $6`,
		newPaid, newPending, status, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalances: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalances: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalances: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *CreditSaleRepository) ListOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.CreditSale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+saleColumns+` FROM credit_sales
		WHERE customer_id = $1 AND payment_status <> $2
		ORDER BY created_at`,
		customerID, domain.PaymentStatusPaid,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOpenByCustomer: %w", err)
	}
	defer rows.Close()

	var sales []domain.CreditSale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOpenByCustomer: scan: %w", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOpenByCustomer: rows: %w", err)
	}
	return sales, nil
}

func scanSale(s scanner) (*domain.CreditSale, error) {
	var cs domain.CreditSale
	err := s.Scan(
		&cs.ID, &cs.CustomerID, &cs.Total, &cs.AmountPaid, &cs.AmountPending,
		&cs.Status, &cs.Version, &cs.DueDate, &cs.CreatedAt, &cs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}
