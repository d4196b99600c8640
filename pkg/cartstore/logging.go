package cartstore

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	operationHydrate        = "hydrate"
	operationAddItem        = "add_item"
	operationRemoveItem     = "remove_item"
	operationUpdateQuantity = "update_quantity"
	operationClear          = "clear"

	operationStatusOK    = "ok"
	operationStatusError = "error"
)

// Option configures a Store.
type Option func(*Store)

// OperationLogger records store mutations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one store operation.
type OperationLog struct {
	Operation string
	ItemID    string
	ProductID string
	Quantity  int
	ItemCount int
	Total     decimal.Decimal
	Status    string
	Error     error
}

// WithOperationLogger wires a logger that receives every mutation.
func WithOperationLogger(logger OperationLogger) Option {
	return func(store *Store) {
		store.logger = logger
	}
}

// WithIDGenerator overrides item id generation.
func WithIDGenerator(newID func() string) Option {
	return func(store *Store) {
		if newID != nil {
			store.newID = newID
		}
	}
}
