package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/logging"
	"github.com/luminapos/credit-ledger/internal/metrics"
)

type RegisterPaymentRequest struct {
	SaleID         uuid.UUID
	CustomerID     uuid.UUID
	Amount         int64
	Method         domain.PaymentMethod
	RegisteredBy   string
	Notes          string
	IdempotencyKey string
}

// RegisterPayment applies a payment against a sale's pending balance. The
// payment record, the sale balance update, and the debt decrement commit
// together or not at all. Version conflicts are retried from a fresh read up
// to the configured bound; a previously-seen idempotency key returns the
// original record with no state change.
func (s *Service) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("RegisterPayment: %w", domain.ErrInvalidAmount)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("RegisterPayment: %q: %w", req.Method, domain.ErrInvalidMethod)
	}
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("RegisterPayment: %w", domain.ErrMissingIdempotencyKey)
	}

	if existing, err := s.payments.GetByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("RegisterPayment: %w", err)
	} else if existing != nil {
		metrics.PaymentsReplayed.Inc()
		log.Info("payment replayed by idempotency key",
			"payment_id", existing.ID,
			"sale_id", existing.SaleID,
			"idempotency_key", req.IdempotencyKey,
		)
		return existing, nil
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		p, err := s.applyPayment(ctx, req)
		if errors.Is(err, domain.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
			log.Warn("version conflict applying payment",
				"sale_id", req.SaleID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("RegisterPayment: %w", err)
		}

		metrics.PaymentsRegistered.Inc()
		log.Info("payment registered",
			"payment_id", p.ID,
			"sale_id", req.SaleID,
			"customer_id", req.CustomerID,
			"amount", req.Amount,
			"method", req.Method,
		)
		return p, nil
	}

	return nil, fmt.Errorf("RegisterPayment: %d attempts: %w", s.maxAttempts, domain.ErrConcurrentModification)
}

// applyPayment runs one optimistic attempt: read the sale with its version,
// validate, then commit all three writes conditionally on that version.
func (s *Service) applyPayment(ctx context.Context, req RegisterPaymentRequest) (*domain.Payment, error) {
	sale, err := s.sales.GetByID(ctx, req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}
	// A sale id under a different customer is indistinguishable from a
	// missing sale to the caller.
	if sale.CustomerID != req.CustomerID {
		return nil, fmt.Errorf("applyPayment: customer mismatch: %w", domain.ErrSaleNotFound)
	}
	if sale.Status == domain.PaymentStatusPaid {
		return nil, fmt.Errorf("applyPayment: %w", domain.ErrSaleAlreadySettled)
	}
	if req.Amount > sale.AmountPending {
		return nil, fmt.Errorf("applyPayment: amount %d > pending %d: %w",
			req.Amount, sale.AmountPending, domain.ErrAmountExceedsPending)
	}

	newPaid := sale.AmountPaid + req.Amount
	newPending := sale.AmountPending - req.Amount
	newStatus := domain.StatusFor(newPaid, newPending)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("applyPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	p := &domain.Payment{
		ID:             uuid.New(),
		SaleID:         req.SaleID,
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		Method:         req.Method,
		RegisteredBy:   req.RegisteredBy,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.payments.Append(ctx, tx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			// A concurrent call with the same key won the race. Surface its
			// record; nothing from this attempt is committed.
			return s.replayExisting(ctx, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("applyPayment: append payment: %w", err)
	}

	if err := s.sales.UpdateBalances(ctx, tx, sale.ID, newPaid, newPending, newStatus, sale.Version+1); err != nil {
		return nil, fmt.Errorf("applyPayment: %w", err)
	}

	if _, err := s.accounts.AdjustDebt(ctx, tx, req.CustomerID, -req.Amount); err != nil {
		if !errors.Is(err, domain.ErrDebtUnderflow) {
			return nil, fmt.Errorf("applyPayment: adjust debt: %w", err)
		}
		// Invariant breach upstream: the registry clamped to zero. The
		// payment itself is sound, so the call proceeds, but this must be
		// visible to operators.
		metrics.DebtUnderflows.Inc()
		logging.FromContext(ctx).Error("debt underflow clamped",
			"customer_id", req.CustomerID,
			"sale_id", req.SaleID,
			"amount", req.Amount,
		)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("applyPayment: commit: %w", err)
	}

	return p, nil
}

func (s *Service) replayExisting(ctx context.Context, key string) (*domain.Payment, error) {
	existing, err := s.payments.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("replayExisting: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("replayExisting: record vanished for key %q", key)
	}
	metrics.PaymentsReplayed.Inc()
	return existing, nil
}
