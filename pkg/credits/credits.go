// Package credits holds the pure calculations over a stored-value credits balance.
package credits

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CanAfford reports whether the available funds cover amount. Pending funds never count.
func CanAfford(balance Balance, amount decimal.Decimal) bool {
	return balance.Available.GreaterThanOrEqual(amount)
}

// Discount is the outcome of applying a percentage discount.
type Discount struct {
	DiscountedPrice decimal.Decimal
	Savings         decimal.Decimal
}

// CalculateDiscount applies discountPercent to originalPrice.
func CalculateDiscount(originalPrice decimal.Decimal, discountPercent decimal.Decimal) Discount {
	savings := originalPrice.Mul(discountPercent).Div(hundred)
	return Discount{
		DiscountedPrice: originalPrice.Sub(savings),
		Savings:         savings,
	}
}

// Split divides a payable total between credits and another payment method.
type Split struct {
	FromCredits decimal.Decimal
	Remaining   decimal.Decimal
}

// WalletDeduction spends available credits first, up to the total.
func WalletDeduction(balance Balance, total decimal.Decimal) Split {
	fromCredits := decimal.Min(balance.Available, total)
	if fromCredits.IsNegative() {
		fromCredits = decimal.Zero
	}
	return Split{
		FromCredits: fromCredits,
		Remaining:   total.Sub(fromCredits),
	}
}
