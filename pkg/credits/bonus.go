package credits

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BonusTier grants BonusPercent extra credits for deposits of at least MinAmount.
type BonusTier struct {
	MinAmount    decimal.Decimal
	BonusPercent decimal.Decimal
}

// BonusTable is a tier list sorted by ascending MinAmount.
type BonusTable struct {
	tiers []BonusTier
}

// DefaultBonusTable is the deposit incentive schedule offered in the store.
var DefaultBonusTable = mustBonusTable(
	BonusTier{MinAmount: decimal.NewFromInt(10), BonusPercent: decimal.Zero},
	BonusTier{MinAmount: decimal.NewFromInt(25), BonusPercent: decimal.NewFromInt(5)},
	BonusTier{MinAmount: decimal.NewFromInt(50), BonusPercent: decimal.NewFromInt(10)},
	BonusTier{MinAmount: decimal.NewFromInt(100), BonusPercent: decimal.NewFromInt(15)},
	BonusTier{MinAmount: decimal.NewFromInt(250), BonusPercent: decimal.NewFromInt(20)},
)

// NewBonusTable sorts and validates tiers. Thresholds must be distinct and non-negative.
func NewBonusTable(tiers ...BonusTier) (BonusTable, error) {
	sorted := append([]BonusTier(nil), tiers...)
	sort.SliceStable(sorted, func(left, right int) bool {
		return sorted[left].MinAmount.LessThan(sorted[right].MinAmount)
	})
	for index, tier := range sorted {
		if tier.MinAmount.IsNegative() {
			return BonusTable{}, fmt.Errorf("%w: negative threshold %s", ErrInvalidBonusTable, tier.MinAmount)
		}
		if tier.BonusPercent.IsNegative() {
			return BonusTable{}, fmt.Errorf("%w: negative bonus %s", ErrInvalidBonusTable, tier.BonusPercent)
		}
		if index > 0 && sorted[index-1].MinAmount.Equal(tier.MinAmount) {
			return BonusTable{}, fmt.Errorf("%w: repeated threshold %s", ErrInvalidBonusTable, tier.MinAmount)
		}
	}
	return BonusTable{tiers: sorted}, nil
}

func mustBonusTable(tiers ...BonusTier) BonusTable {
	table, err := NewBonusTable(tiers...)
	if err != nil {
		panic(err)
	}
	return table
}

// Tiers returns a copy of the sorted tiers.
func (table BonusTable) Tiers() []BonusTier {
	return append([]BonusTier(nil), table.tiers...)
}

// Tier returns the richest tier whose MinAmount is at most amount.
func (table BonusTable) Tier(amount decimal.Decimal) (BonusTier, bool) {
	index := sort.Search(len(table.tiers), func(position int) bool {
		return table.tiers[position].MinAmount.GreaterThan(amount)
	})
	if index == 0 {
		return BonusTier{}, false
	}
	return table.tiers[index-1], true
}

// Bonus is the outcome of a deposit.
type Bonus struct {
	BonusPercent decimal.Decimal
	BonusAmount  decimal.Decimal
	TotalCredits decimal.Decimal
}

// CalculateBonus applies the table to depositAmount. Deposits below the lowest tier earn nothing.
func (table BonusTable) CalculateBonus(depositAmount decimal.Decimal) Bonus {
	bonusPercent := decimal.Zero
	if tier, found := table.Tier(depositAmount); found {
		bonusPercent = tier.BonusPercent
	}
	bonusAmount := depositAmount.Mul(bonusPercent).Div(hundred)
	return Bonus{
		BonusPercent: bonusPercent,
		BonusAmount:  bonusAmount,
		TotalCredits: depositAmount.Add(bonusAmount),
	}
}

// CalculateCreditBonus applies DefaultBonusTable.
func CalculateCreditBonus(depositAmount decimal.Decimal) Bonus {
	return DefaultBonusTable.CalculateBonus(depositAmount)
}
