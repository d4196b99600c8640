package orderrpc

import (
	"github.com/shopspring/decimal"
)

// SubmitOrderRequest places an order for a checkout session.
type SubmitOrderRequest struct {
	SessionID     string          `json:"session_id"`
	CartID        string          `json:"cart_id"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Items         []OrderLine     `json:"items"`
}

// OrderLine is one cart line of an order.
type OrderLine struct {
	ItemID    string          `json:"item_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Vertical  string          `json:"vertical"`
}

// SubmitOrderResponse reports whether the payment went through.
type SubmitOrderResponse struct {
	OrderID  string `json:"order_id"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// GetBalanceRequest asks for the caller's credits balance.
type GetBalanceRequest struct{}

// GetBalanceResponse is the credits balance.
type GetBalanceResponse struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Currency  string          `json:"currency"`
}
