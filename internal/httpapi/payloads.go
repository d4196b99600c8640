package httpapi

import (
	"strings"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Vertical    string          `json:"vertical"`
	Metadata    cart.Metadata   `json:"metadata"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type paymentMethodRequest struct {
	Method string `json:"method"`
}

type promotionRequest struct {
	Code           string          `json:"code"`
	Kind           string          `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	MaxDiscount    decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
}

type initializeCheckoutRequest struct {
	Promotion *promotionRequest `json:"promotion"`
}

func (request initializeCheckoutRequest) promotion() *checkout.Promotion {
	if request.Promotion == nil {
		return nil
	}
	return &checkout.Promotion{
		Code:           request.Promotion.Code,
		Kind:           checkout.PromotionKind(strings.ToLower(strings.TrimSpace(request.Promotion.Kind))),
		Value:          request.Promotion.Value,
		MaxDiscount:    request.Promotion.MaxDiscount,
		MinOrderAmount: request.Promotion.MinOrderAmount,
	}
}

type cartPayload struct {
	Items          []cart.Item     `json:"items"`
	Currency       string          `json:"currency"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"itemCount"`
	FormattedTotal string          `json:"formattedTotal"`
}

func newCartPayload(current cart.Cart) cartPayload {
	total := cart.Total(current)
	formatted := total.StringFixed(2)
	if unit, err := credits.CurrencyUnit(current.Currency.String()); err == nil {
		formatted = credits.FormatMoney(total, unit)
	}
	items := current.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartPayload{
		Items:          items,
		Currency:       current.Currency.String(),
		Total:          total,
		ItemCount:      cart.ItemCount(current),
		FormattedTotal: formatted,
	}
}

type balancePayload struct {
	Available          decimal.Decimal `json:"available"`
	Pending            decimal.Decimal `json:"pending"`
	Currency           string          `json:"currency"`
	FormattedAvailable string          `json:"formattedAvailable"`
}

type checkoutPayload struct {
	Session *checkout.Session `json:"session,omitempty"`
	Step    string            `json:"step"`
	Expired bool              `json:"expired"`
	Balance *balancePayload   `json:"balance,omitempty"`
}

type bonusPayload struct {
	Deposit        decimal.Decimal `json:"deposit"`
	BonusPercent   decimal.Decimal `json:"bonusPercent"`
	BonusAmount    decimal.Decimal `json:"bonusAmount"`
	TotalCredits   decimal.Decimal `json:"totalCredits"`
	FormattedTotal string          `json:"formattedTotal"`
}
