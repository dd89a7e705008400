package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/auth"
	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/service/ledger"
)

type ledgerService interface {
	CreateCreditSale(ctx context.Context, req ledger.CreateSaleRequest) (*domain.CreditSale, error)
	RegisterPayment(ctx context.Context, req ledger.RegisterPaymentRequest) (*domain.Payment, error)
}

type saleQueryService interface {
	GetSale(ctx context.Context, saleID uuid.UUID) (*domain.CreditSale, error)
	GetPaymentHistory(ctx context.Context, saleID uuid.UUID) ([]domain.Payment, error)
}

type SaleHandler struct {
	ledger  ledgerService
	queries saleQueryService
}

func NewSaleHandler(ledger ledgerService, queries saleQueryService) *SaleHandler {
	return &SaleHandler{ledger: ledger, queries: queries}
}

type createSaleRequest struct {
	CustomerID string     `json:"customer_id"`
	Total      int64      `json:"total"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

func (r createSaleRequest) Validate() []FieldError {
	var errs []FieldError

	if r.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "required"})
	} else if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid uuid"})
	}

	if r.Total <= 0 {
		errs = append(errs, FieldError{Field: "total", Message: "must be greater than 0"})
	}

	return errs
}

type registerPaymentRequest struct {
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
	Method     string `json:"method"`
	Notes      string `json:"notes,omitempty"`
}

func (r registerPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "required"})
	} else if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid uuid"})
	}

	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "must be cash, card, transfer, or other"})
	}

	return errs
}

type saleDTO struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Total         int64      `json:"total"`
	AmountPaid    int64      `json:"amount_paid"`
	AmountPending int64      `json:"amount_pending"`
	PaymentStatus string     `json:"payment_status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toSaleDTO(s *domain.CreditSale) saleDTO {
	return saleDTO{
		ID:            s.ID,
		CustomerID:    s.CustomerID,
		Total:         s.Total,
		AmountPaid:    s.AmountPaid,
		AmountPending: s.AmountPending,
		PaymentStatus: string(s.Status),
		DueDate:       s.DueDate,
		CreatedAt:     s.CreatedAt,
	}
}

type paymentDTO struct {
	ID           uuid.UUID `json:"id"`
	SaleID       uuid.UUID `json:"sale_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	Amount       int64     `json:"amount"`
	Method       string    `json:"method"`
	RegisteredBy string    `json:"registered_by"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:           p.ID,
		SaleID:       p.SaleID,
		CustomerID:   p.CustomerID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		RegisteredBy: p.RegisteredBy,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
	}
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	sale, err := h.ledger.CreateCreditSale(r.Context(), ledger.CreateSaleRequest{
		CustomerID: customerID,
		Total:      req.Total,
		DueDate:    req.DueDate,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toSaleDTO(sale))
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sale, err := h.queries.GetSale(r.Context(), saleID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSaleDTO(sale))
}

func (h *SaleHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		RespondAppError(w, ErrMissingIdempotencyKey, nil)
		return
	}

	var req registerPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	p, err := h.ledger.RegisterPayment(r.Context(), ledger.RegisterPaymentRequest{
		SaleID:         saleID,
		CustomerID:     customerID,
		Amount:         req.Amount,
		Method:         domain.PaymentMethod(req.Method),
		RegisteredBy:   claims.CashierID.String(),
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPaymentDTO(p))
}

func (h *SaleHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	payments, err := h.queries.GetPaymentHistory(r.Context(), saleID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]paymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, toPaymentDTO(&payments[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
