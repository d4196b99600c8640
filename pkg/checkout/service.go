// Package checkout drives a cart through a time-bounded checkout session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/google/uuid"
)

var errMissingOrderID = errors.New("order api returned no order id")

// Service owns the working checkout session of one application root.
type Service struct {
	mutex      sync.Mutex
	cartSource CartSource
	orders     OrderGateway
	balances   BalanceSource
	nowFn      func() time.Time
	newID      func() string
	config     Config
	logger     OperationLogger

	session *Session
	step    Step
	balance *credits.Balance
}

// NewService wires a Service.
func NewService(cartSource CartSource, orders OrderGateway, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if cartSource == nil {
		return nil, fmt.Errorf("%w: cart source dependency is nil", ErrInvalidServiceConfig)
	}
	if orders == nil {
		return nil, fmt.Errorf("%w: order gateway dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		cartSource: cartSource,
		orders:     orders,
		nowFn:      now,
		newID:      uuid.NewString,
		config:     DefaultConfig(),
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if err := service.config.Validate(); err != nil {
		return nil, err
	}
	return service, nil
}

// InitializeCheckout opens a new pending session from the current cart and resets the flow
// to the review step. The credits balance is fetched once here when a balance source is wired.
func (service *Service) InitializeCheckout(ctx context.Context, promotion *Promotion) (Session, error) {
	service.mutex.Lock()
	if service.session != nil && service.session.Status == StatusProcessing {
		service.mutex.Unlock()
		err := fmt.Errorf("%w: session %s is processing", ErrInvalidCheckoutState, service.session.ID)
		service.logOperation(ctx, OperationLog{Operation: operationInitialize, Error: err})
		return Session{}, err
	}
	session, err := NewSession(service.cartSource.Cart(), promotion, service.config, service.nowFn(), service.newID)
	if err != nil {
		service.mutex.Unlock()
		service.logOperation(ctx, OperationLog{Operation: operationInitialize, Error: err})
		return Session{}, err
	}
	service.session = &session
	service.step = StepReview
	service.mutex.Unlock()

	if service.balances != nil {
		if _, balanceErr := service.RefreshBalance(ctx); balanceErr != nil {
			service.clearBalance()
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationInitialize,
		SessionID:     session.ID,
		SessionStatus: session.Status,
		Amount:        session.Total,
	})
	return session, nil
}

// RefreshBalance fetches the credits balance and keeps it as the affordability snapshot.
func (service *Service) RefreshBalance(ctx context.Context) (credits.Balance, error) {
	if service.balances == nil {
		return credits.Balance{}, ErrBalanceUnavailable
	}
	balance, err := service.balances.FetchBalance(ctx)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
		service.logOperation(ctx, OperationLog{Operation: operationRefreshBalance, Error: wrapped})
		return credits.Balance{}, wrapped
	}
	service.mutex.Lock()
	service.balance = &balance
	service.mutex.Unlock()
	service.logOperation(ctx, OperationLog{Operation: operationRefreshBalance, Amount: balance.Available})
	return balance, nil
}

// SetPaymentMethod records the chosen method on the working session without changing its status.
// Choosing credits requires the available balance to cover the total; on ErrInsufficientBalance
// the previous choice is kept so the selection stays open.
func (service *Service) SetPaymentMethod(ctx context.Context, method PaymentMethod) (Session, error) {
	session, err := service.setPaymentMethod(method)
	service.logOperation(ctx, OperationLog{
		Operation:     operationSetPaymentMethod,
		SessionID:     session.ID,
		SessionStatus: session.Status,
		PaymentMethod: method,
		Amount:        session.Total,
		Error:         err,
	})
	return session, err
}

func (service *Service) setPaymentMethod(method PaymentMethod) (Session, error) {
	parsed, err := ParsePaymentMethod(method.String())
	if err != nil {
		return Session{}, err
	}
	service.mutex.Lock()
	defer service.mutex.Unlock()
	session, err := service.usableSessionLocked()
	if err != nil {
		return session, err
	}
	if parsed == PaymentCredits {
		if err := service.checkAffordableLocked(session); err != nil {
			return session, err
		}
	}
	service.session.PaymentMethod = parsed
	return *service.session, nil
}

// NextStep advances review -> payment -> confirm. Leaving review needs a live pending session,
// leaving payment needs a chosen payment method.
func (service *Service) NextStep() (Step, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	session, err := service.usableSessionLocked()
	if err != nil {
		return service.step, err
	}
	switch service.step {
	case StepReview:
		service.step = StepPayment
	case StepPayment:
		if !session.HasPaymentMethod() {
			return service.step, fmt.Errorf("%w: payment method not chosen", ErrInvalidCheckoutState)
		}
		service.step = StepConfirm
	default:
		return service.step, fmt.Errorf("%w: already at %s", ErrInvalidCheckoutState, service.step)
	}
	return service.step, nil
}

// PrevStep goes back one step. It is refused only once the session has completed.
func (service *Service) PrevStep() (Step, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	if service.session != nil && service.session.Status == StatusCompleted {
		return service.step, fmt.Errorf("%w: session completed", ErrInvalidCheckoutState)
	}
	if service.step > StepReview {
		service.step--
	}
	return service.step, nil
}

// CompleteCheckout submits the working session to the order API. The session is moved to
// processing before the call, so a repeated or concurrent completion of the same session fails
// with ErrInvalidCheckoutState instead of placing a second order. On success the session is
// completed and the cart cleared; on failure it is marked failed and the cart is kept.
func (service *Service) CompleteCheckout(ctx context.Context) (Session, error) {
	request, err := service.beginCompletion()
	if err != nil {
		service.logOperation(ctx, OperationLog{
			Operation:     operationComplete,
			SessionID:     request.SessionID,
			PaymentMethod: request.PaymentMethod,
			Amount:        request.Total,
			Error:         err,
		})
		return service.currentSession(), err
	}

	// The order call and the cart clear run to resolution even if the caller goes away.
	detached := context.WithoutCancel(ctx)
	receipt, submitErr := service.orders.SubmitOrder(detached, request)
	if submitErr == nil && strings.TrimSpace(receipt.OrderID) == "" {
		submitErr = errMissingOrderID
	}

	session, err := service.finishCompletion(request.SessionID, receipt, submitErr)
	if err == nil {
		if clearErr := service.cartSource.Clear(detached); clearErr != nil {
			err = fmt.Errorf("order %s placed but cart not cleared: %w", session.OrderID, clearErr)
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationComplete,
		SessionID:     session.ID,
		SessionStatus: session.Status,
		PaymentMethod: session.PaymentMethod,
		Amount:        session.Total,
		OrderID:       session.OrderID,
		Error:         err,
	})
	return session, err
}

func (service *Service) beginCompletion() (OrderRequest, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	session, err := service.usableSessionLocked()
	if err != nil {
		return OrderRequest{SessionID: session.ID, PaymentMethod: session.PaymentMethod, Total: session.Total}, err
	}
	request := OrderRequest{
		SessionID:     session.ID,
		CartID:        session.CartID,
		PaymentMethod: session.PaymentMethod,
		Total:         session.Total,
		Currency:      session.Currency,
		Items:         cart.Cart{Items: session.Items}.Clone().Items,
	}
	if !session.HasPaymentMethod() {
		return request, fmt.Errorf("%w: payment method not chosen", ErrInvalidCheckoutState)
	}
	if !session.PricedCart(service.cartSource.Cart()) {
		return request, fmt.Errorf("%w: cart changed since session %s was priced", ErrInvalidCheckoutState, session.ID)
	}
	if session.PaymentMethod == PaymentCredits {
		if err := service.checkAffordableLocked(session); err != nil {
			return request, err
		}
	}
	processing, err := session.Transition(StatusProcessing)
	if err != nil {
		return request, err
	}
	service.session = &processing
	return request, nil
}

func (service *Service) finishCompletion(sessionID string, receipt OrderReceipt, submitErr error) (Session, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	if service.session == nil || service.session.ID != sessionID {
		return Session{}, fmt.Errorf("%w: session %s replaced while processing", ErrInvalidCheckoutState, sessionID)
	}
	if submitErr != nil {
		failed, err := service.session.Transition(StatusFailed)
		if err != nil {
			return *service.session, err
		}
		failed.FailureReason = submitErr.Error()
		service.session = &failed
		return failed, fmt.Errorf("%w: %w", ErrPaymentFailed, submitErr)
	}
	completed, err := service.session.Transition(StatusCompleted)
	if err != nil {
		return *service.session, err
	}
	completed.OrderID = receipt.OrderID
	service.session = &completed
	return completed, nil
}

// CancelCheckout abandons a pending session. Sessions already handed to the order API
// cannot be cancelled from here because the in-flight call is not interruptible.
func (service *Service) CancelCheckout(ctx context.Context) (Session, error) {
	service.mutex.Lock()
	session, err := service.usableSessionLocked()
	if err == nil {
		session, err = session.Transition(StatusCancelled)
		if err == nil {
			service.session = &session
			service.step = StepReview
		}
	}
	service.mutex.Unlock()
	service.logOperation(ctx, OperationLog{
		Operation:     operationCancel,
		SessionID:     session.ID,
		SessionStatus: session.Status,
		Error:         err,
	})
	return session, err
}

// Session returns a copy of the working session.
func (service *Service) Session() (Session, bool) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	if service.session == nil {
		return Session{}, false
	}
	return *service.session, true
}

// Step returns the current flow step.
func (service *Service) Step() Step {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	return service.step
}

// Balance returns the last fetched credits balance.
func (service *Service) Balance() (credits.Balance, bool) {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	if service.balance == nil {
		return credits.Balance{}, false
	}
	return *service.balance, true
}

// Expired reports whether the working session exists and is past its deadline.
func (service *Service) Expired() bool {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	return service.session != nil && IsExpired(*service.session, service.nowFn())
}

func (service *Service) currentSession() Session {
	session, _ := service.Session()
	return session
}

func (service *Service) usableSessionLocked() (Session, error) {
	if service.session == nil {
		return Session{}, fmt.Errorf("%w: no session", ErrInvalidCheckoutState)
	}
	session := *service.session
	if session.Status != StatusPending {
		return session, fmt.Errorf("%w: session %s is %s", ErrInvalidCheckoutState, session.ID, session.Status)
	}
	if IsExpired(session, service.nowFn()) {
		return session, fmt.Errorf("%w: session %s expired at %s", ErrSessionExpired, session.ID, session.ExpiresAt.Format(time.RFC3339))
	}
	return session, nil
}

func (service *Service) checkAffordableLocked(session Session) error {
	if service.balance == nil {
		return ErrBalanceUnavailable
	}
	if !credits.CanAfford(*service.balance, session.Total) {
		return fmt.Errorf("%w: available %s, total %s", ErrInsufficientBalance, service.balance.Available, session.Total)
	}
	return nil
}

func (service *Service) clearBalance() {
	service.mutex.Lock()
	service.balance = nil
	service.mutex.Unlock()
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
