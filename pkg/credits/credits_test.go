package credits

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanAffordIgnoresPending(test *testing.T) {
	test.Parallel()
	balance := NewBalance(mustDecimal(test, "20"), mustDecimal(test, "500"))
	testCases := []struct {
		name   string
		amount string
		want   bool
	}{
		{name: "below available", amount: "19.99", want: true},
		{name: "exactly available", amount: "20", want: true},
		{name: "needs pending funds", amount: "20.01", want: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := CanAfford(balance, mustDecimal(test, testCase.amount)); got != testCase.want {
				test.Fatalf("expected %t, got %t", testCase.want, got)
			}
		})
	}
}

func TestCalculateDiscount(test *testing.T) {
	test.Parallel()
	discount := CalculateDiscount(mustDecimal(test, "80"), mustDecimal(test, "25"))
	if !discount.Savings.Equal(mustDecimal(test, "20")) {
		test.Fatalf("expected savings 20, got %s", discount.Savings)
	}
	if !discount.DiscountedPrice.Equal(mustDecimal(test, "60")) {
		test.Fatalf("expected discounted price 60, got %s", discount.DiscountedPrice)
	}
}

func TestCalculateCreditBonusBoundaries(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		deposit     string
		wantPercent string
		wantTotal   string
	}{
		{deposit: "5", wantPercent: "0", wantTotal: "5"},
		{deposit: "10", wantPercent: "0", wantTotal: "10"},
		{deposit: "25", wantPercent: "5", wantTotal: "26.25"},
		{deposit: "49.99", wantPercent: "5", wantTotal: "52.4895"},
		{deposit: "50", wantPercent: "10", wantTotal: "55"},
		{deposit: "100", wantPercent: "15", wantTotal: "115"},
		{deposit: "250", wantPercent: "20", wantTotal: "300"},
		{deposit: "1000", wantPercent: "20", wantTotal: "1200"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.deposit, func(test *testing.T) {
			test.Parallel()
			bonus := CalculateCreditBonus(mustDecimal(test, testCase.deposit))
			if !bonus.BonusPercent.Equal(mustDecimal(test, testCase.wantPercent)) {
				test.Fatalf("expected %s%%, got %s%%", testCase.wantPercent, bonus.BonusPercent)
			}
			if !bonus.TotalCredits.Equal(mustDecimal(test, testCase.wantTotal)) {
				test.Fatalf("expected total %s, got %s", testCase.wantTotal, bonus.TotalCredits)
			}
			if !bonus.TotalCredits.Equal(mustDecimal(test, testCase.deposit).Add(bonus.BonusAmount)) {
				test.Fatalf("total must be deposit plus bonus")
			}
		})
	}
}

func TestCalculateCreditBonusIsMonotonic(test *testing.T) {
	test.Parallel()
	previous := decimal.NewFromInt(-1)
	for cents := int64(0); cents <= 40000; cents += 25 {
		deposit := decimal.New(cents, -2)
		bonus := CalculateCreditBonus(deposit)
		if bonus.BonusPercent.LessThan(previous) {
			test.Fatalf("bonus percent dropped at %s: %s < %s", deposit, bonus.BonusPercent, previous)
		}
		previous = bonus.BonusPercent
	}
}

func TestNewBonusTableSortsTiers(test *testing.T) {
	test.Parallel()
	table, err := NewBonusTable(
		BonusTier{MinAmount: mustDecimal(test, "100"), BonusPercent: mustDecimal(test, "30")},
		BonusTier{MinAmount: mustDecimal(test, "1"), BonusPercent: mustDecimal(test, "1")},
		BonusTier{MinAmount: mustDecimal(test, "20"), BonusPercent: mustDecimal(test, "2")},
	)
	if err != nil {
		test.Fatalf("new bonus table: %v", err)
	}
	tier, found := table.Tier(mustDecimal(test, "99"))
	if !found || !tier.MinAmount.Equal(mustDecimal(test, "20")) {
		test.Fatalf("expected the 20 tier, got %+v (found=%t)", tier, found)
	}
	if _, found := table.Tier(mustDecimal(test, "0.5")); found {
		test.Fatalf("expected no tier below the lowest threshold")
	}
	tiers := table.Tiers()
	if len(tiers) != 3 || !tiers[0].MinAmount.Equal(mustDecimal(test, "1")) {
		test.Fatalf("expected sorted tiers, got %+v", tiers)
	}
}

func TestNewBonusTableRejectsInvalidTiers(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name  string
		tiers []BonusTier
	}{
		{name: "repeated threshold", tiers: []BonusTier{
			{MinAmount: decimal.NewFromInt(10), BonusPercent: decimal.NewFromInt(1)},
			{MinAmount: decimal.NewFromInt(10), BonusPercent: decimal.NewFromInt(2)},
		}},
		{name: "negative threshold", tiers: []BonusTier{{MinAmount: decimal.NewFromInt(-1), BonusPercent: decimal.Zero}}},
		{name: "negative bonus", tiers: []BonusTier{{MinAmount: decimal.NewFromInt(1), BonusPercent: decimal.NewFromInt(-5)}}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if _, err := NewBonusTable(testCase.tiers...); !errors.Is(err, ErrInvalidBonusTable) {
				test.Fatalf("expected ErrInvalidBonusTable, got %v", err)
			}
		})
	}
}

func TestWalletDeduction(test *testing.T) {
	test.Parallel()
	partial := WalletDeduction(NewBalance(mustDecimal(test, "30"), decimal.Zero), mustDecimal(test, "108"))
	if !partial.FromCredits.Equal(mustDecimal(test, "30")) || !partial.Remaining.Equal(mustDecimal(test, "78")) {
		test.Fatalf("unexpected split: %+v", partial)
	}
	covered := WalletDeduction(NewBalance(mustDecimal(test, "500"), decimal.Zero), mustDecimal(test, "108"))
	if !covered.FromCredits.Equal(mustDecimal(test, "108")) || !covered.Remaining.IsZero() {
		test.Fatalf("unexpected split: %+v", covered)
	}
}

func TestFormatCredits(test *testing.T) {
	test.Parallel()
	formatted := FormatCredits(mustDecimal(test, "12.5"))
	if !strings.Contains(formatted, "£") || !strings.Contains(formatted, "12.50") {
		test.Fatalf("unexpected formatting: %q", formatted)
	}
}

func TestParseTransactionType(test *testing.T) {
	test.Parallel()
	transactionType, err := ParseTransactionType(" Bonus ")
	if err != nil || transactionType != TransactionBonus {
		test.Fatalf("expected bonus, got %q (%v)", transactionType, err)
	}
	if _, err := ParseTransactionType("chargeback"); !errors.Is(err, ErrInvalidTransactionType) {
		test.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}
}

func mustDecimal(test *testing.T, raw string) decimal.Decimal {
	test.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		test.Fatalf("decimal %q: %v", raw, err)
	}
	return value
}
