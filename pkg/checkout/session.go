package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
)

// NewSession prices a snapshot of current and opens a pending session that expires
// config.SessionTTL after now.
func NewSession(current cart.Cart, promotion *Promotion, config Config, now time.Time, newID func() string) (Session, error) {
	if current.IsEmpty() {
		return Session{}, ErrEmptyCart
	}
	if err := config.Validate(); err != nil {
		return Session{}, err
	}
	totals, err := CalculateCheckoutTotals(cart.Total(current), promotion, config.TaxRate)
	if err != nil {
		return Session{}, err
	}
	sessionID := strings.TrimSpace(newID())
	cartID := strings.TrimSpace(newID())
	if sessionID == "" || cartID == "" {
		return Session{}, fmt.Errorf("%w: id generator returned empty id", ErrInvalidServiceConfig)
	}
	currency := current.Currency
	if currency == "" {
		currency = cart.DefaultCurrency
	}
	session := Session{
		ID:        sessionID,
		CartID:    cartID,
		Status:    StatusPending,
		Subtotal:  totals.Subtotal,
		Discount:  totals.Discount,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Currency:  currency,
		Items:     current.Clone().Items,
		CreatedAt: now,
		ExpiresAt: now.Add(config.SessionTTL),
	}
	if promotion != nil {
		session.PromotionCode = promotion.Code
	}
	return session, nil
}

// PricedCart reports whether current still holds exactly the lines the session was priced from.
func (session Session) PricedCart(current cart.Cart) bool {
	if len(current.Items) != len(session.Items) {
		return false
	}
	for index, item := range current.Items {
		priced := session.Items[index]
		if item.ProductID != priced.ProductID || item.Quantity != priced.Quantity || !item.Price.Equal(priced.Price) {
			return false
		}
	}
	return true
}

// IsExpired reports whether now is past the session deadline. It never changes the session.
func IsExpired(session Session, now time.Time) bool {
	return now.After(session.ExpiresAt)
}

// Transition moves the session to next when the machine allows it.
func (session Session) Transition(next Status) (Session, error) {
	if !session.Status.CanTransitionTo(next) {
		return session, fmt.Errorf("%w: %s -> %s", ErrInvalidCheckoutState, session.Status, next)
	}
	session.Status = next
	return session, nil
}
