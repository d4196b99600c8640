package orderrpc

import (
	"context"
	"strings"
	"sync"

	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorInvalidSessionID     = "invalid_session_id"
	errorInvalidTotal         = "invalid_total"
	errorInvalidPaymentMethod = "invalid_payment_method"
	errorInsufficientFunds    = "insufficient_funds"
)

// LocalOrderService is an in-memory order API. It backs local runs and tests; orders are
// idempotent per session id and credits payments are drawn from a single wallet.
type LocalOrderService struct {
	mutex   sync.Mutex
	balance credits.Balance
	orders  map[string]string
	newID   func() string
}

// NewLocalOrderService starts with available credits in the wallet.
func NewLocalOrderService(available decimal.Decimal) *LocalOrderService {
	return &LocalOrderService{
		balance: credits.NewBalance(available, decimal.Zero),
		orders:  map[string]string{},
		newID:   uuid.NewString,
	}
}

func (service *LocalOrderService) SubmitOrder(ctx context.Context, request *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	sessionID := strings.TrimSpace(request.SessionID)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, errorInvalidSessionID)
	}
	if request.Total.IsNegative() {
		return nil, status.Error(codes.InvalidArgument, errorInvalidTotal)
	}
	method, err := checkout.ParsePaymentMethod(request.PaymentMethod)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorInvalidPaymentMethod)
	}

	service.mutex.Lock()
	defer service.mutex.Unlock()
	if orderID, ok := service.orders[sessionID]; ok {
		return &SubmitOrderResponse{OrderID: orderID, Accepted: true}, nil
	}
	if method == checkout.PaymentCredits {
		if !credits.CanAfford(service.balance, request.Total) {
			return &SubmitOrderResponse{Accepted: false, Message: errorInsufficientFunds}, nil
		}
		split := credits.WalletDeduction(service.balance, request.Total)
		service.balance.Available = service.balance.Available.Sub(split.FromCredits)
	}
	orderID := service.newID()
	service.orders[sessionID] = orderID
	return &SubmitOrderResponse{OrderID: orderID, Accepted: true}, nil
}

func (service *LocalOrderService) GetBalance(ctx context.Context, request *GetBalanceRequest) (*GetBalanceResponse, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	return &GetBalanceResponse{
		Available: service.balance.Available,
		Pending:   service.balance.Pending,
		Currency:  service.balance.Currency.String(),
	}, nil
}

// Deposit credits the wallet with amount plus the deposit bonus and returns the bonus.
func (service *LocalOrderService) Deposit(amount decimal.Decimal) credits.Bonus {
	bonus := credits.CalculateCreditBonus(amount)
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.balance.Available = service.balance.Available.Add(bonus.TotalCredits)
	return bonus
}
