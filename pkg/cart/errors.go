package cart

import "errors"

// Precondition errors returned by the cart model.
var (
	ErrInvalidItemID    = errors.New("invalid item id")
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidVertical  = errors.New("invalid vertical")
	ErrInvalidMetadata  = errors.New("invalid metadata")
	ErrDuplicateProduct = errors.New("duplicate product")
)
