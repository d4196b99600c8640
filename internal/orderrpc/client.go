package orderrpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/billing"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultTimeout          = 3 * time.Second
	breakerMaxRequests      = 1
	breakerInterval         = time.Minute
	breakerOpenTimeout      = 30 * time.Second
	breakerFailureThreshold = 5
	errorOperationOrderAPI  = billing.OperationOrderAPI
	errorSubjectOrder       = billing.SubjectOrder
	errorSubjectBalance     = billing.SubjectBalance
	errorCodeRejected       = "rejected"
	errorCodeUnavailable    = "unavailable"
	errorCodeCall           = "call"
	errorCodeInvalid        = "invalid"
)

var (
	// ErrOrderRejected means the order API answered but declined the payment.
	ErrOrderRejected = errors.New("order rejected")
	// ErrServiceUnavailable means the circuit breaker is refusing calls.
	ErrServiceUnavailable = errors.New("order service unavailable")
)

// Client implements checkout.OrderGateway and checkout.BalanceSource over gRPC.
type Client struct {
	conn           grpc.ClientConnInterface
	timeout        time.Duration
	submitBreaker  *gobreaker.CircuitBreaker[*SubmitOrderResponse]
	balanceBreaker *gobreaker.CircuitBreaker[*GetBalanceResponse]
}

// ClientOption configures a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	timeout          time.Duration
	failureThreshold uint32
	openTimeout      time.Duration
	onStateChange    func(name string, from gobreaker.State, to gobreaker.State)
}

// WithTimeout bounds balance calls. Order submission carries no deadline: once sent it
// runs until the order API answers.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(settings *clientSettings) {
		if timeout > 0 {
			settings.timeout = timeout
		}
	}
}

// WithBreaker overrides after how many consecutive failures the breaker opens and how long it stays open.
func WithBreaker(failureThreshold uint32, openTimeout time.Duration) ClientOption {
	return func(settings *clientSettings) {
		if failureThreshold > 0 {
			settings.failureThreshold = failureThreshold
		}
		if openTimeout > 0 {
			settings.openTimeout = openTimeout
		}
	}
}

// WithStateChangeHook observes breaker transitions.
func WithStateChangeHook(hook func(name string, from gobreaker.State, to gobreaker.State)) ClientOption {
	return func(settings *clientSettings) {
		settings.onStateChange = hook
	}
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface, options ...ClientOption) *Client {
	settings := clientSettings{
		timeout:          defaultTimeout,
		failureThreshold: breakerFailureThreshold,
		openTimeout:      breakerOpenTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}
	return &Client{
		conn:           conn,
		timeout:        settings.timeout,
		submitBreaker:  gobreaker.NewCircuitBreaker[*SubmitOrderResponse](breakerSettings(methodSubmitOrder, settings)),
		balanceBreaker: gobreaker.NewCircuitBreaker[*GetBalanceResponse](breakerSettings(methodGetBalance, settings)),
	}
}

func breakerSettings(name string, settings clientSettings) gobreaker.Settings {
	threshold := settings.failureThreshold
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     settings.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: settings.onStateChange,
	}
}

// SubmitOrder places the order. Cancelling ctx does not abandon a call already in flight.
// A declined payment is returned as ErrOrderRejected and does not count against the breaker.
func (client *Client) SubmitOrder(ctx context.Context, request checkout.OrderRequest) (checkout.OrderReceipt, error) {
	message := newSubmitOrderRequest(request)
	response, err := client.submitBreaker.Execute(func() (*SubmitOrderResponse, error) {
		response := new(SubmitOrderResponse)
		if err := client.conn.Invoke(context.WithoutCancel(ctx), SubmitOrderFullMethod, message, response, grpc.ForceCodec(Codec{})); err != nil {
			return nil, err
		}
		return response, nil
	})
	if err != nil {
		return checkout.OrderReceipt{}, wrapCallError(errorSubjectOrder, err)
	}
	if !response.Accepted {
		reason := strings.TrimSpace(response.Message)
		if reason == "" {
			reason = "payment declined"
		}
		return checkout.OrderReceipt{}, billing.WrapError(errorOperationOrderAPI, errorSubjectOrder, errorCodeRejected, fmt.Errorf("%w: %s", ErrOrderRejected, reason))
	}
	return checkout.OrderReceipt{OrderID: response.OrderID}, nil
}

// FetchBalance returns the caller's credits balance.
func (client *Client) FetchBalance(ctx context.Context) (credits.Balance, error) {
	response, err := client.balanceBreaker.Execute(func() (*GetBalanceResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, client.timeout)
		defer cancel()
		response := new(GetBalanceResponse)
		if err := client.conn.Invoke(callCtx, GetBalanceFullMethod, &GetBalanceRequest{}, response, grpc.ForceCodec(Codec{})); err != nil {
			return nil, err
		}
		return response, nil
	})
	if err != nil {
		return credits.Balance{}, wrapCallError(errorSubjectBalance, err)
	}
	if response.Currency != "" && response.Currency != credits.LedgerCurrency.String() {
		return credits.Balance{}, billing.WrapError(errorOperationOrderAPI, errorSubjectBalance, errorCodeInvalid, fmt.Errorf("unexpected currency %q", response.Currency))
	}
	return credits.NewBalance(response.Available, response.Pending), nil
}

// Dial connects to the order API at address and waits until the connection is ready.
func Dial(ctx context.Context, address string, insecureTransport bool) (*grpc.ClientConn, error) {
	dialOptions := []grpc.DialOption{}
	if insecureTransport {
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("connect order api: %w", err)
	}
	conn.Connect()
	if err := WaitForReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect order api: %w", err)
	}
	return conn, nil
}

// WaitForReady blocks until conn is ready, shut down, or ctx ends.
func WaitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return errors.New("grpc connection shutdown before ready")
		}
		if !conn.WaitForStateChange(ctx, state) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errors.New("grpc connection failed to reach ready state")
		}
	}
}

func newSubmitOrderRequest(request checkout.OrderRequest) *SubmitOrderRequest {
	lines := make([]OrderLine, 0, len(request.Items))
	for _, item := range request.Items {
		lines = append(lines, OrderLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			Vertical:  item.Vertical.String(),
		})
	}
	currency := request.Currency
	if currency == "" {
		currency = cart.DefaultCurrency
	}
	return &SubmitOrderRequest{
		SessionID:     request.SessionID,
		CartID:        request.CartID,
		PaymentMethod: request.PaymentMethod.String(),
		Total:         request.Total,
		Currency:      currency.String(),
		Items:         lines,
	}
}

func wrapCallError(subject string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return billing.WrapError(errorOperationOrderAPI, subject, errorCodeUnavailable, fmt.Errorf("%w: %v", ErrServiceUnavailable, err))
	}
	return billing.WrapError(errorOperationOrderAPI, subject, errorCodeCall, err)
}
