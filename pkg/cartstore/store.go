// Package cartstore keeps the working cart of one application root, persists every change
// through a Slot and notifies subscribers after each successful mutation.
package cartstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSlotKey is the single key under which the cart is persisted.
const DefaultSlotKey = "hyble-cart"

// Slot is the durable home of the cart.
type Slot interface {
	// Load returns the stored cart. The boolean is false when nothing was stored yet.
	Load(ctx context.Context) (cart.Cart, bool, error)
	Save(ctx context.Context, current cart.Cart) error
}

// Listener receives the cart after every successful mutation.
type Listener func(current cart.Cart)

type subscription struct {
	id       uint64
	listener Listener
}

// Store is the reactive cart container.
type Store struct {
	mutex          sync.Mutex
	slot           Slot
	newID          cart.IDGenerator
	logger         OperationLogger
	current        cart.Cart
	subscriptions  []subscription
	nextListenerID uint64
}

// New hydrates a Store from slot. An empty slot yields an empty cart.
func New(ctx context.Context, slot Slot, options ...Option) (*Store, error) {
	if slot == nil {
		return nil, fmt.Errorf("%w: slot dependency is nil", ErrInvalidStoreConfig)
	}
	store := &Store{
		slot:    slot,
		newID:   uuid.NewString,
		current: cart.NewCart(),
	}
	for _, option := range options {
		if option != nil {
			option(store)
		}
	}
	stored, found, err := slot.Load(ctx)
	if err != nil {
		store.logOperation(ctx, OperationLog{Operation: operationHydrate, Error: err})
		return nil, err
	}
	if found {
		if err := stored.Validate(); err != nil {
			err = fmt.Errorf("%w: %v", ErrCorruptCart, err)
			store.logOperation(ctx, OperationLog{Operation: operationHydrate, Error: err})
			return nil, err
		}
		store.current = stored
	}
	store.logOperation(ctx, OperationLog{
		Operation: operationHydrate,
		ItemCount: cart.ItemCount(store.current),
		Total:     cart.Total(store.current),
	})
	return store, nil
}

// AddItem adds incoming to the cart, merging quantities for a product already present.
func (store *Store) AddItem(ctx context.Context, incoming cart.NewItem) (cart.Cart, error) {
	entry := OperationLog{Operation: operationAddItem, ProductID: incoming.ProductID, Quantity: incoming.Quantity}
	return store.mutate(ctx, entry, func(current cart.Cart) (cart.Cart, error) {
		return cart.AddItemWithID(current, incoming, store.newID)
	})
}

// RemoveItem drops the item with itemID. Unknown ids leave the cart as it is.
func (store *Store) RemoveItem(ctx context.Context, itemID string) (cart.Cart, error) {
	entry := OperationLog{Operation: operationRemoveItem, ItemID: itemID}
	return store.mutate(ctx, entry, func(current cart.Cart) (cart.Cart, error) {
		return cart.RemoveItem(current, itemID), nil
	})
}

// UpdateQuantity sets the quantity of itemID; zero or less removes it.
func (store *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (cart.Cart, error) {
	entry := OperationLog{Operation: operationUpdateQuantity, ItemID: itemID, Quantity: quantity}
	return store.mutate(ctx, entry, func(current cart.Cart) (cart.Cart, error) {
		return cart.UpdateQuantity(current, itemID, quantity), nil
	})
}

// Clear empties the cart.
func (store *Store) Clear(ctx context.Context) error {
	_, err := store.mutate(ctx, OperationLog{Operation: operationClear}, func(cart.Cart) (cart.Cart, error) {
		return cart.Clear(), nil
	})
	return err
}

// Cart returns a copy of the current cart. Writing into it never reaches the store.
func (store *Store) Cart() cart.Cart {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.current.Clone()
}

// Total recomputes the cart total.
func (store *Store) Total() decimal.Decimal {
	return cart.Total(store.Cart())
}

// ItemCount recomputes the number of units in the cart.
func (store *Store) ItemCount() int {
	return cart.ItemCount(store.Cart())
}

// Subscribe registers listener and returns the func that removes it.
func (store *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.nextListenerID++
	id := store.nextListenerID
	store.subscriptions = append(store.subscriptions, subscription{id: id, listener: listener})
	var once sync.Once
	return func() {
		once.Do(func() {
			store.unsubscribe(id)
		})
	}
}

func (store *Store) unsubscribe(id uint64) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	kept := make([]subscription, 0, len(store.subscriptions))
	for _, existing := range store.subscriptions {
		if existing.id != id {
			kept = append(kept, existing)
		}
	}
	store.subscriptions = kept
}

// mutate applies change, persists the result and only then swaps it in. Listeners run
// after the lock is released so they may read the store.
func (store *Store) mutate(ctx context.Context, entry OperationLog, change func(cart.Cart) (cart.Cart, error)) (cart.Cart, error) {
	store.mutex.Lock()
	next, err := change(store.current)
	if err == nil {
		err = store.slot.Save(ctx, next)
	}
	if err != nil {
		current := store.current.Clone()
		store.mutex.Unlock()
		entry.Error = err
		entry.ItemCount = cart.ItemCount(current)
		entry.Total = cart.Total(current)
		store.logOperation(ctx, entry)
		return current, err
	}
	store.current = next
	listeners := make([]Listener, 0, len(store.subscriptions))
	for _, existing := range store.subscriptions {
		listeners = append(listeners, existing.listener)
	}
	store.mutex.Unlock()

	entry.ItemCount = cart.ItemCount(next)
	entry.Total = cart.Total(next)
	store.logOperation(ctx, entry)
	for _, listener := range listeners {
		listener(next.Clone())
	}
	return next.Clone(), nil
}

func (store *Store) logOperation(ctx context.Context, entry OperationLog) {
	if store.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	store.logger.LogOperation(ctx, entry)
}
