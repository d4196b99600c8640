package credits

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var creditsPrinter = message.NewPrinter(language.BritishEnglish)

// FormatCredits renders amount as GBP for display.
func FormatCredits(amount decimal.Decimal) string {
	return FormatMoney(amount, currency.GBP)
}

// FormatMoney renders amount in unit using British formatting.
func FormatMoney(amount decimal.Decimal, unit currency.Unit) string {
	rounded := amount.Round(2)
	return creditsPrinter.Sprint(currency.Symbol(unit.Amount(rounded.InexactFloat64())))
}

// CurrencyUnit maps a cart currency to its formatting unit.
func CurrencyUnit(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency %q: %w", code, err)
	}
	return unit, nil
}
