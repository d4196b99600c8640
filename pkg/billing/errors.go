// Package billing holds the error envelope shared by the billing core and its adapters.
// Infrastructure failures surface as operation.subject.code: cause, for example
// slot.cart.decode or order_api.order.rejected, and callers branch on the code.
package billing

import "errors"

// Operations whose failures are wrapped.
const (
	OperationSlot     = "slot"
	OperationOrderAPI = "order_api"
)

// Subjects an operation acts on.
const (
	SubjectCart    = "cart"
	SubjectOrder   = "order"
	SubjectBalance = "balance"
)

// OperationError is the envelope. Err stays reachable through errors.Is and errors.As.
type OperationError struct {
	Operation string
	Subject   string
	Code      string
	Err       error
}

// Path is the dotted operation.subject.code triple.
func (failure OperationError) Path() string {
	return failure.Operation + "." + failure.Subject + "." + failure.Code
}

func (failure OperationError) Error() string {
	return failure.Path() + ": " + failure.Err.Error()
}

func (failure OperationError) Unwrap() error {
	return failure.Err
}

// WrapError puts err in the envelope. A nil err stays nil.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{Operation: operation, Subject: subject, Code: code, Err: err}
}

// PathOf returns the path of the outermost envelope in err's chain.
func PathOf(err error) (string, bool) {
	var failure OperationError
	if !errors.As(err, &failure) {
		return "", false
	}
	return failure.Path(), true
}
