package checkout

import (
	"context"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/shopspring/decimal"
)

// CartSource is the slice of the cart store the checkout machine needs.
type CartSource interface {
	Cart() cart.Cart
	Clear(ctx context.Context) error
}

// OrderRequest is submitted to the order/payment API when a session completes.
type OrderRequest struct {
	SessionID     string
	CartID        string
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Currency      cart.Currency
	Items         []cart.Item
}

// OrderReceipt is returned by the order/payment API on success.
type OrderReceipt struct {
	OrderID string
}

// OrderGateway submits orders. A returned error means the payment did not go through.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, request OrderRequest) (OrderReceipt, error)
}

// BalanceSource fetches the caller's credits balance.
type BalanceSource interface {
	FetchBalance(ctx context.Context) (credits.Balance, error)
}
