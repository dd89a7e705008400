package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is one payment event against a credit sale. Records are append-only:
// never mutated or deleted. The idempotency key makes retried registrations
// resolve to the original record.
type Payment struct {
	ID             uuid.UUID
	SaleID         uuid.UUID
	CustomerID     uuid.UUID
	Amount         int64
	Method         PaymentMethod
	RegisteredBy   string
	Notes          string
	IdempotencyKey string
	CreatedAt      time.Time
}
