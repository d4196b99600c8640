package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency enumerates the currencies a cart can be priced in.
type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"

	// DefaultCurrency is used for new and cleared carts.
	DefaultCurrency = CurrencyGBP
)

// ParseCurrency validates and normalizes a currency code.
func ParseCurrency(raw string) (Currency, error) {
	currency := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	switch currency {
	case CurrencyGBP, CurrencyUSD, CurrencyEUR:
		return currency, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
}

// String returns the ISO code.
func (currency Currency) String() string {
	return string(currency)
}

// Vertical identifies the product line an item belongs to.
type Vertical string

const (
	VerticalGeneral Vertical = "general"
	VerticalDigital Vertical = "digital"
	VerticalStudios Vertical = "studios"
)

// ParseVertical validates a product line, defaulting empty input to general.
func ParseVertical(raw string) (Vertical, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return VerticalGeneral, nil
	}
	vertical := Vertical(normalized)
	switch vertical {
	case VerticalGeneral, VerticalDigital, VerticalStudios:
		return vertical, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVertical, raw)
	}
}

// String returns the vertical name.
func (vertical Vertical) String() string {
	return string(vertical)
}

// Item is a single line of a cart. There is at most one item per product.
type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Vertical    Vertical        `json:"vertical"`
	Metadata    Metadata        `json:"metadata,omitempty"`
}

// LineTotal returns price times quantity.
func (item Item) LineTotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func (item Item) clone() Item {
	item.Metadata = item.Metadata.Clone()
	return item
}

// NewItem carries everything needed to insert an item except its id.
type NewItem struct {
	ProductID   string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Vertical    Vertical
	Metadata    Metadata
}

// Validate rejects inputs that would break cart invariants.
func (item NewItem) Validate() error {
	if strings.TrimSpace(item.ProductID) == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidProductID)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidPrice)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: must be at least 1", ErrInvalidQuantity)
	}
	if _, err := ParseVertical(item.Vertical.String()); err != nil {
		return err
	}
	return nil
}

// Cart is an ordered, product-unique list of items priced in one currency.
// Values are treated as immutable: every operation returns a new Cart.
type Cart struct {
	Items    []Item   `json:"items"`
	Currency Currency `json:"currency"`
}

// IsEmpty reports whether the cart has no items.
func (cart Cart) IsEmpty() bool {
	return len(cart.Items) == 0
}

// Find returns the item holding productID.
func (cart Cart) Find(productID string) (Item, bool) {
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return item.clone(), true
		}
	}
	return Item{}, false
}

// Clone returns a cart that shares no item or metadata storage with cart.
func (cart Cart) Clone() Cart {
	return Cart{Items: cart.copyItems(), Currency: cart.Currency}
}

// ProductIDs lists product ids in insertion order.
func (cart Cart) ProductIDs() []string {
	productIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	return productIDs
}

// Validate checks the cart invariants. Used when hydrating carts from storage.
func (cart Cart) Validate() error {
	if _, err := ParseCurrency(cart.Currency.String()); err != nil {
		return err
	}
	seenProducts := make(map[string]struct{}, len(cart.Items))
	seenItems := make(map[string]struct{}, len(cart.Items))
	for _, item := range cart.Items {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("%w: empty value", ErrInvalidItemID)
		}
		if _, exists := seenItems[item.ID]; exists {
			return fmt.Errorf("%w: %s repeated", ErrInvalidItemID, item.ID)
		}
		seenItems[item.ID] = struct{}{}
		if _, exists := seenProducts[item.ProductID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, item.ProductID)
		}
		seenProducts[item.ProductID] = struct{}{}
		newItem := NewItem{ProductID: item.ProductID, Price: item.Price, Quantity: item.Quantity, Vertical: item.Vertical}
		if err := newItem.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (cart Cart) currency() Currency {
	if cart.Currency == "" {
		return DefaultCurrency
	}
	return cart.Currency
}

func (cart Cart) copyItems() []Item {
	items := make([]Item, 0, len(cart.Items)+1)
	for _, item := range cart.Items {
		items = append(items, item.clone())
	}
	return items
}
