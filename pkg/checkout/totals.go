package checkout

import (
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/shopspring/decimal"
)

const moneyScale = 2

// PromotionKind distinguishes percentage from fixed-amount promotions.
type PromotionKind string

const (
	PromotionPercentage PromotionKind = "percentage"
	PromotionFixed      PromotionKind = "fixed"
)

// Promotion is a coupon or credit promotion applied before tax.
// A zero MaxDiscount or MinOrderAmount means no limit.
type Promotion struct {
	Code           string
	Kind           PromotionKind
	Value          decimal.Decimal
	MaxDiscount    decimal.Decimal
	MinOrderAmount decimal.Decimal
}

// Validate rejects malformed promotions.
func (promotion Promotion) Validate() error {
	if strings.TrimSpace(promotion.Code) == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidPromotion)
	}
	if promotion.Value.IsNegative() || promotion.MaxDiscount.IsNegative() || promotion.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidPromotion)
	}
	switch promotion.Kind {
	case PromotionPercentage:
		if promotion.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage above 100", ErrInvalidPromotion)
		}
	case PromotionFixed:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPromotion, promotion.Kind)
	}
	return nil
}

// DiscountFor returns the amount the promotion takes off subtotal.
func (promotion Promotion) DiscountFor(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := promotion.Validate(); err != nil {
		return decimal.Zero, err
	}
	if promotion.MinOrderAmount.IsPositive() && subtotal.LessThan(promotion.MinOrderAmount) {
		return decimal.Zero, fmt.Errorf("%w: minimum order amount is %s", ErrPromotionNotApplicable, promotion.MinOrderAmount)
	}
	var discount decimal.Decimal
	switch promotion.Kind {
	case PromotionPercentage:
		discount = credits.CalculateDiscount(subtotal, promotion.Value).Savings
		if promotion.MaxDiscount.IsPositive() {
			discount = decimal.Min(discount, promotion.MaxDiscount)
		}
	case PromotionFixed:
		discount = decimal.Min(promotion.Value, subtotal)
	}
	return discount.Round(moneyScale), nil
}

// Totals is the priced breakdown of a checkout.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateCheckoutTotals prices a subtotal. Tax is charged on the discounted amount,
// never on the raw subtotal: total = (subtotal - discount) + tax.
func CalculateCheckoutTotals(subtotal decimal.Decimal, promotion *Promotion, taxRate decimal.Decimal) (Totals, error) {
	discount := decimal.Zero
	if promotion != nil {
		promotionDiscount, err := promotion.DiscountFor(subtotal)
		if err != nil {
			return Totals{}, err
		}
		discount = promotionDiscount
	}
	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(taxRate).Round(moneyScale)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    discounted.Add(tax),
	}, nil
}
