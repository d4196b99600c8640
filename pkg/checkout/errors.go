package checkout

import "errors"

// Domain-level error values returned by the checkout machine.
var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBalanceUnavailable     = errors.New("credits balance unavailable")
	ErrSessionExpired         = errors.New("checkout session expired")
	ErrInvalidCheckoutState   = errors.New("invalid checkout state")
	ErrPaymentFailed          = errors.New("payment failed")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidPromotion       = errors.New("invalid promotion")
	ErrPromotionNotApplicable = errors.New("promotion not applicable")
	ErrInvalidServiceConfig   = errors.New("invalid service config")
)
