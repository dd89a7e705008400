// Package debtor provides the read-only projections over the credit ledger:
// the debtor list with risk classification and per-sale payment history. It
// never mutates state.
package debtor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luminapos/credit-ledger/internal/domain"
)

// RiskTier classifies how close a debtor is to their credit ceiling.
type RiskTier string

const (
	RiskNormal   RiskTier = "normal"
	RiskAlert    RiskTier = "alert"
	RiskCritical RiskTier = "critical"
)

var (
	alertThreshold    = decimal.NewFromFloat(0.7)
	criticalThreshold = decimal.NewFromFloat(0.9)
)

type accountRepo interface {
	Get(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error)
	ListDebtors(ctx context.Context) ([]domain.CreditAccount, error)
}

type saleRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CreditSale, error)
	ListOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.CreditSale, error)
}

type paymentRepo interface {
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]domain.Payment, error)
}

type Service struct {
	accounts accountRepo
	sales    saleRepo
	payments paymentRepo
}

func NewService(accounts accountRepo, sales saleRepo, payments paymentRepo) *Service {
	return &Service{
		accounts: accounts,
		sales:    sales,
		payments: payments,
	}
}

// Debtor is one row of the debtor list. AvailableCredit is nil for unlimited
// accounts and may be negative when a limit was lowered below the debt.
type Debtor struct {
	CustomerID      uuid.UUID
	CreditLimit     int64
	CurrentDebt     int64
	Unlimited       bool
	AvailableCredit *int64
	Risk            RiskTier
}

// AccountDetail is the per-customer credit read model.
type AccountDetail struct {
	Account         domain.CreditAccount
	Unlimited       bool
	AvailableCredit *int64
	Risk            RiskTier
	OpenSales       []domain.CreditSale
}

func (s *Service) ListDebtors(ctx context.Context) ([]Debtor, error) {
	accounts, err := s.accounts.ListDebtors(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDebtors: %w", err)
	}

	debtors := make([]Debtor, 0, len(accounts))
	for _, a := range accounts {
		debtors = append(debtors, Debtor{
			CustomerID:      a.CustomerID,
			CreditLimit:     a.CreditLimit,
			CurrentDebt:     a.CurrentDebt,
			Unlimited:       a.Unlimited(),
			AvailableCredit: a.AvailableCredit(),
			Risk:            ClassifyRisk(a.CreditLimit, a.CurrentDebt),
		})
	}
	return debtors, nil
}

func (s *Service) GetAccount(ctx context.Context, customerID uuid.UUID) (*AccountDetail, error) {
	acct, err := s.accounts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	open, err := s.sales.ListOpenByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}

	return &AccountDetail{
		Account:         *acct,
		Unlimited:       acct.Unlimited(),
		AvailableCredit: acct.AvailableCredit(),
		Risk:            ClassifyRisk(acct.CreditLimit, acct.CurrentDebt),
		OpenSales:       open,
	}, nil
}

func (s *Service) GetSale(ctx context.Context, saleID uuid.UUID) (*domain.CreditSale, error) {
	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("GetSale: %w", err)
	}
	return sale, nil
}

// GetPaymentHistory returns the sale's payments in chronological order.
func (s *Service) GetPaymentHistory(ctx context.Context, saleID uuid.UUID) ([]domain.Payment, error) {
	if _, err := s.sales.GetByID(ctx, saleID); err != nil {
		return nil, fmt.Errorf("GetPaymentHistory: %w", err)
	}

	payments, err := s.payments.ListBySale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("GetPaymentHistory: %w", err)
	}
	return payments, nil
}

// ClassifyRisk buckets a debtor by limit utilization: normal below 70%, alert
// from 70% to under 90%, critical at 90% and above or over limit. Unlimited
// accounts have no ceiling to burn through and stay normal.
func ClassifyRisk(creditLimit, currentDebt int64) RiskTier {
	if creditLimit == 0 {
		return RiskNormal
	}
	if currentDebt >= creditLimit {
		return RiskCritical
	}

	utilization := decimal.NewFromInt(currentDebt).Div(decimal.NewFromInt(creditLimit))
	switch {
	case utilization.GreaterThanOrEqual(criticalThreshold):
		return RiskCritical
	case utilization.GreaterThanOrEqual(alertThreshold):
		return RiskAlert
	default:
		return RiskNormal
	}
}
