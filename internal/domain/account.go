package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreditAccount tracks a customer's aggregate credit position.
// CreditLimit of 0 means unlimited. CurrentDebt always equals the sum of
// AmountPending over the customer's non-settled credit sales.
type CreditAccount struct {
	CustomerID  uuid.UUID
	CreditLimit int64
	CurrentDebt int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unlimited reports whether the account has no credit ceiling.
func (a *CreditAccount) Unlimited() bool {
	return a.CreditLimit == 0
}

// AvailableCredit returns the remaining headroom, or nil for unlimited accounts.
// A limit lowered below the current debt yields a negative value.
func (a *CreditAccount) AvailableCredit() *int64 {
	if a.Unlimited() {
		return nil
	}
	v := a.CreditLimit - a.CurrentDebt
	return &v
}
