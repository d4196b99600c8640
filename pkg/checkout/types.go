package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a checkout session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransitionTo reports whether the machine allows moving from status to next.
func (status Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (status Status) IsTerminal() bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// String returns the status name.
func (status Status) String() string {
	return string(status)
}

// PaymentMethod is how a session will be paid. The zero value means not chosen yet.
type PaymentMethod string

const (
	PaymentNone    PaymentMethod = ""
	PaymentCredits PaymentMethod = "credits"
	PaymentCard    PaymentMethod = "card"
	PaymentPayPal  PaymentMethod = "paypal"
)

// ParsePaymentMethod validates a chosen payment method.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch method {
	case PaymentCredits, PaymentCard, PaymentPayPal:
		return method, nil
	default:
		return PaymentNone, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, raw)
	}
}

// String returns the method name.
func (method PaymentMethod) String() string {
	return string(method)
}

// Step is a page of the review, payment, confirm flow.
type Step int

const (
	StepReview Step = iota
	StepPayment
	StepConfirm
)

var stepNames = [...]string{"review", "payment", "confirm"}

// String returns the step name.
func (step Step) String() string {
	if step < StepReview || step > StepConfirm {
		return fmt.Sprintf("step(%d)", int(step))
	}
	return stepNames[step]
}

// Config holds the tunables of session initialization.
type Config struct {
	TaxRate    decimal.Decimal
	SessionTTL time.Duration
}

// DefaultConfig returns a 20% tax rate and a 30 minute session window.
func DefaultConfig() Config {
	return Config{
		TaxRate:    decimal.RequireFromString(defaultTaxRate),
		SessionTTL: defaultSessionTTL,
	}
}

// Validate rejects negative tax rates and non-positive session windows.
func (config Config) Validate() error {
	if config.TaxRate.IsNegative() {
		return fmt.Errorf("%w: tax rate must not be negative", ErrInvalidServiceConfig)
	}
	if config.SessionTTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalidServiceConfig)
	}
	return nil
}

// Session is one time-bounded attempt to turn a cart into a paid order.
type Session struct {
	ID            string          `json:"id"`
	CartID        string          `json:"cartId"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Currency      cart.Currency   `json:"currency"`
	Items         []cart.Item     `json:"items"`
	PromotionCode string          `json:"promotionCode,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	OrderID       string          `json:"orderId,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
}

// HasPaymentMethod reports whether a method was chosen.
func (session Session) HasPaymentMethod() bool {
	return session.PaymentMethod != PaymentNone
}

// Usable reports whether the session still accepts state changes at now.
func (session Session) Usable(now time.Time) bool {
	return session.Status == StatusPending && !IsExpired(session, now)
}
