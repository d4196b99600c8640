package credits

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/shopspring/decimal"
)

// LedgerCurrency is the only currency credits are held in.
const LedgerCurrency = cart.CurrencyGBP

// Balance is an externally sourced snapshot of a user's credits.
// Pending funds are shown to the user but never spendable.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Currency  cart.Currency   `json:"currency"`
}

// NewBalance builds a GBP balance.
func NewBalance(available decimal.Decimal, pending decimal.Decimal) Balance {
	return Balance{Available: available, Pending: pending, Currency: LedgerCurrency}
}

// TransactionType enumerates credit transaction kinds.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionPurchase TransactionType = "purchase"
	TransactionRefund   TransactionType = "refund"
	TransactionBonus    TransactionType = "bonus"
)

// ParseTransactionType validates a transaction type.
func ParseTransactionType(raw string) (TransactionType, error) {
	transactionType := TransactionType(strings.ToLower(strings.TrimSpace(raw)))
	switch transactionType {
	case TransactionDeposit, TransactionPurchase, TransactionRefund, TransactionBonus:
		return transactionType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, raw)
	}
}

// String returns the type name.
func (transactionType TransactionType) String() string {
	return string(transactionType)
}

// Transaction is an immutable historical record owned by the external ledger service.
type Transaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"createdAt"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
