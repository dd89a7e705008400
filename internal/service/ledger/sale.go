package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/logging"
	"github.com/luminapos/credit-ledger/internal/metrics"
)

type CreateSaleRequest struct {
	CustomerID uuid.UUID
	Total      int64
	DueDate    *time.Time
}

// CreateCreditSale admits a new credit sale. The account row lock taken inside
// the transaction serializes admission per customer, so two concurrent sales
// cannot both pass the limit check on stale debt.
func (s *Service) CreateCreditSale(ctx context.Context, req CreateSaleRequest) (*domain.CreditSale, error) {
	log := logging.FromContext(ctx)

	if req.Total <= 0 {
		return nil, fmt.Errorf("CreateCreditSale: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateCreditSale: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.accounts.GetOrCreateForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("CreateCreditSale: %w", err)
	}

	if err := Authorize(acct.CreditLimit, acct.CurrentDebt, req.Total); err != nil {
		return nil, fmt.Errorf("CreateCreditSale: %w", err)
	}

	now := time.Now().UTC()
	sale := &domain.CreditSale{
		ID:            uuid.New(),
		CustomerID:    req.CustomerID,
		Total:         req.Total,
		AmountPaid:    0,
		AmountPending: req.Total,
		Status:        domain.PaymentStatusPending,
		Version:       0,
		DueDate:       req.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sales.Create(ctx, tx, sale); err != nil {
		return nil, fmt.Errorf("CreateCreditSale: create sale: %w", err)
	}

	if _, err := s.accounts.AdjustDebt(ctx, tx, req.CustomerID, req.Total); err != nil {
		return nil, fmt.Errorf("CreateCreditSale: adjust debt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateCreditSale: commit: %w", err)
	}

	metrics.SalesCreated.Inc()
	log.Info("credit sale created",
		"sale_id", sale.ID,
		"customer_id", sale.CustomerID,
		"total", sale.Total,
	)

	return sale, nil
}

// UpdateCreditLimit sets a new ceiling for the customer. Existing sale
// balances are untouched; a limit below the current debt leaves the account
// over limit, which the debtor projections surface as critical.
func (s *Service) UpdateCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit int64) (*domain.CreditAccount, error) {
	log := logging.FromContext(ctx)

	if newLimit < 0 {
		return nil, fmt.Errorf("UpdateCreditLimit: %w", domain.ErrInvalidLimit)
	}

	acct, err := s.accounts.SetCreditLimit(ctx, customerID, newLimit)
	if err != nil {
		return nil, fmt.Errorf("UpdateCreditLimit: %w", err)
	}

	if !acct.Unlimited() && acct.CurrentDebt > acct.CreditLimit {
		log.Warn("credit limit set below current debt",
			"customer_id", customerID,
			"credit_limit", acct.CreditLimit,
			"current_debt", acct.CurrentDebt,
		)
	} else {
		log.Info("credit limit updated",
			"customer_id", customerID,
			"credit_limit", newLimit,
		)
	}

	return acct, nil
}
