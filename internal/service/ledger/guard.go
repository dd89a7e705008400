package ledger

import (
	"fmt"

	"github.com/luminapos/credit-ledger/internal/domain"
)

// Authorize decides whether a customer may take on additionalAmount of new
// debt. A credit limit of zero means unlimited. The block is hard: forcing an
// over-limit sale requires an administrative path outside this core.
func Authorize(creditLimit, currentDebt, additionalAmount int64) error {
	if creditLimit == 0 {
		return nil
	}
	if currentDebt+additionalAmount > creditLimit {
		return fmt.Errorf("Authorize: debt %d + %d exceeds limit %d: %w",
			currentDebt, additionalAmount, creditLimit, domain.ErrCreditLimitExceeded)
	}
	return nil
}
