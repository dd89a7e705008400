package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/luminapos/credit-ledger/internal/domain"
	"github.com/luminapos/credit-ledger/internal/service/debtor"
)

type limitService interface {
	UpdateCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit int64) (*domain.CreditAccount, error)
}

type debtorQueryService interface {
	ListDebtors(ctx context.Context) ([]debtor.Debtor, error)
	GetAccount(ctx context.Context, customerID uuid.UUID) (*debtor.AccountDetail, error)
}

type AccountHandler struct {
	limits  limitService
	queries debtorQueryService
}

func NewAccountHandler(limits limitService, queries debtorQueryService) *AccountHandler {
	return &AccountHandler{limits: limits, queries: queries}
}

type updateLimitRequest struct {
	CreditLimit *int64 `json:"credit_limit"`
}

func (r updateLimitRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CreditLimit == nil {
		errs = append(errs, FieldError{Field: "credit_limit", Message: "required"})
	} else if *r.CreditLimit < 0 {
		errs = append(errs, FieldError{Field: "credit_limit", Message: "must not be negative"})
	}
	return errs
}

type accountDTO struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	CreditLimit     int64     `json:"credit_limit"`
	CurrentDebt     int64     `json:"current_debt"`
	AvailableCredit any       `json:"available_credit"`
	CreatedAt       time.Time `json:"created_at"`
}

// availableCreditField renders the remaining headroom, or the literal string
// "unlimited" for accounts without a ceiling.
func availableCreditField(unlimited bool, available *int64) any {
	if unlimited {
		return "unlimited"
	}
	return *available
}

func toAccountDTO(a *domain.CreditAccount) accountDTO {
	return accountDTO{
		CustomerID:      a.CustomerID,
		CreditLimit:     a.CreditLimit,
		CurrentDebt:     a.CurrentDebt,
		AvailableCredit: availableCreditField(a.Unlimited(), a.AvailableCredit()),
		CreatedAt:       a.CreatedAt,
	}
}

type debtorDTO struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	CreditLimit     int64     `json:"credit_limit"`
	CurrentDebt     int64     `json:"current_debt"`
	AvailableCredit any       `json:"available_credit"`
	Risk            string    `json:"risk"`
}

type accountDetailDTO struct {
	accountDTO
	Risk      string    `json:"risk"`
	OpenSales []saleDTO `json:"open_sales"`
}

func (h *AccountHandler) ListDebtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.queries.ListDebtors(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]debtorDTO, 0, len(debtors))
	for _, d := range debtors {
		dtos = append(dtos, debtorDTO{
			CustomerID:      d.CustomerID,
			CreditLimit:     d.CreditLimit,
			CurrentDebt:     d.CurrentDebt,
			AvailableCredit: availableCreditField(d.Unlimited, d.AvailableCredit),
			Risk:            string(d.Risk),
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) GetCredit(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	detail, err := h.queries.GetAccount(r.Context(), customerID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dto := accountDetailDTO{
		accountDTO: toAccountDTO(&detail.Account),
		Risk:       string(detail.Risk),
		OpenSales:  make([]saleDTO, 0, len(detail.OpenSales)),
	}
	for i := range detail.OpenSales {
		dto.OpenSales = append(dto.OpenSales, toSaleDTO(&detail.OpenSales[i]))
	}
	RespondSuccess(w, http.StatusOK, dto)
}

func (h *AccountHandler) UpdateCreditLimit(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var req updateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	acct, err := h.limits.UpdateCreditLimit(r.Context(), customerID, *req.CreditLimit)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(acct))
}
