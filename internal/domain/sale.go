package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// CreditSale is a sale transacted on credit. AmountPaid + AmountPending == Total
// at all times; Version gates concurrent balance updates. A sale becomes
// immutable once its status reaches paid.
type CreditSale struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Total         int64
	AmountPaid    int64
	AmountPending int64
	Status        PaymentStatus
	Version       int64
	DueDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusFor derives the payment status from a pending balance.
func StatusFor(amountPaid, amountPending int64) PaymentStatus {
	switch {
	case amountPending == 0:
		return PaymentStatusPaid
	case amountPaid == 0:
		return PaymentStatusPending
	default:
		return PaymentStatusPartial
	}
}
