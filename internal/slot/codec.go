// Package slot holds what the durable cart slots share: the stored document format and
// the error envelope codes.
package slot

import (
	"encoding/json"
	"fmt"

	"github.com/MarkoPoloResearchLab/billing/pkg/billing"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
)

const (
	ErrorOperation   = billing.OperationSlot
	ErrorSubjectCart = billing.SubjectCart
	ErrorCodeLoad    = "load"
	ErrorCodeSave    = "save"
	ErrorCodeDecode  = "decode"
	ErrorCodeEncode  = "encode"
	ErrorCodeOpen    = "open"
	documentVersion  = 1
)

type document struct {
	Version int       `json:"version"`
	Cart    cart.Cart `json:"cart"`
}

// Encode renders current as the stored slot document.
func Encode(current cart.Cart) ([]byte, error) {
	raw, err := json.Marshal(document{Version: documentVersion, Cart: current})
	if err != nil {
		return nil, WrapError(ErrorCodeEncode, err)
	}
	return raw, nil
}

// Decode parses a stored slot document.
func Decode(raw []byte) (cart.Cart, error) {
	var stored document
	if err := json.Unmarshal(raw, &stored); err != nil {
		return cart.Cart{}, WrapError(ErrorCodeDecode, err)
	}
	if stored.Version != documentVersion {
		return cart.Cart{}, WrapError(ErrorCodeDecode, fmt.Errorf("%w: unsupported version %d", cartstore.ErrCorruptCart, stored.Version))
	}
	if stored.Cart.Items == nil {
		stored.Cart.Items = []cart.Item{}
	}
	return stored.Cart, nil
}

// KeyOrDefault returns key, or the store's fixed slot key when key is blank.
func KeyOrDefault(key string) string {
	if key == "" {
		return cartstore.DefaultSlotKey
	}
	return key
}

// WrapError wraps err as slot.cart.<code>.
func WrapError(code string, err error) error {
	return billing.WrapError(ErrorOperation, ErrorSubjectCart, code, err)
}
