package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a checkout operation.
type OperationLog struct {
	Operation     string
	SessionID     string
	SessionStatus Status
	PaymentMethod PaymentMethod
	Amount        decimal.Decimal
	OrderID       string
	Status        string
	Error         error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithBalanceSource enables credits payments by wiring the balance API.
func WithBalanceSource(balances BalanceSource) ServiceOption {
	return func(service *Service) {
		service.balances = balances
	}
}

// WithConfig overrides the tax rate and session window.
func WithConfig(config Config) ServiceOption {
	return func(service *Service) {
		service.config = config
	}
}

// WithIDGenerator overrides session and cart id generation.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(service *Service) {
		if newID != nil {
			service.newID = newID
		}
	}
}
