package credits

import "errors"

// Domain-level error values returned by the credits helpers.
var (
	ErrInvalidBonusTable      = errors.New("invalid bonus table")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)
