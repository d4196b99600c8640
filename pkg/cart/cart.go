// Package cart implements the shopping cart model as pure functions over immutable Cart values.
package cart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IDGenerator produces ids for newly inserted items.
type IDGenerator func() string

// NewCart returns an empty cart in the default currency.
func NewCart() Cart {
	return Cart{Items: []Item{}, Currency: DefaultCurrency}
}

// Clear returns a fresh empty cart. It never derives from the current cart.
func Clear() Cart {
	return NewCart()
}

// AddItem inserts incoming, or increases the quantity of the item already holding its product.
func AddItem(current Cart, incoming NewItem) (Cart, error) {
	return AddItemWithID(current, incoming, uuid.NewString)
}

// AddItemWithID is AddItem with a caller-supplied id generator.
// When the product is already present only its quantity changes; every other field is kept.
func AddItemWithID(current Cart, incoming NewItem, newID IDGenerator) (Cart, error) {
	if err := incoming.Validate(); err != nil {
		return Cart{}, err
	}
	items := current.copyItems()
	for index := range items {
		if items[index].ProductID == incoming.ProductID {
			items[index].Quantity += incoming.Quantity
			return Cart{Items: items, Currency: current.currency()}, nil
		}
	}
	if newID == nil {
		newID = uuid.NewString
	}
	itemID := strings.TrimSpace(newID())
	if itemID == "" {
		return Cart{}, fmt.Errorf("%w: generator returned empty id", ErrInvalidItemID)
	}
	vertical, err := ParseVertical(incoming.Vertical.String())
	if err != nil {
		return Cart{}, err
	}
	items = append(items, Item{
		ID:          itemID,
		ProductID:   incoming.ProductID,
		Name:        incoming.Name,
		Description: incoming.Description,
		Price:       incoming.Price,
		Quantity:    incoming.Quantity,
		Vertical:    vertical,
		Metadata:    incoming.Metadata.Clone(),
	})
	return Cart{Items: items, Currency: current.currency()}, nil
}

// RemoveItem drops the item with itemID. Unknown ids leave the cart unchanged.
func RemoveItem(current Cart, itemID string) Cart {
	items := make([]Item, 0, len(current.Items))
	for _, item := range current.Items {
		if item.ID == itemID {
			continue
		}
		items = append(items, item.clone())
	}
	return Cart{Items: items, Currency: current.currency()}
}

// UpdateQuantity sets the quantity of itemID. A quantity of zero or less removes the item.
func UpdateQuantity(current Cart, itemID string, quantity int) Cart {
	if quantity <= 0 {
		return RemoveItem(current, itemID)
	}
	items := current.copyItems()
	for index := range items {
		if items[index].ID == itemID {
			items[index].Quantity = quantity
		}
	}
	return Cart{Items: items, Currency: current.currency()}
}

// Total sums price times quantity over all items.
func Total(current Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range current.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums quantities, so one item of quantity 5 counts as 5.
func ItemCount(current Cart) int {
	count := 0
	for _, item := range current.Items {
		count += item.Quantity
	}
	return count
}
