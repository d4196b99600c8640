package cartstore

import "errors"

var (
	ErrInvalidStoreConfig = errors.New("invalid store configuration")
	ErrCorruptCart        = errors.New("stored cart is invalid")
)
