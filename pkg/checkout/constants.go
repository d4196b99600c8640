package checkout

import "time"

const (
	operationInitialize       = "initialize"
	operationSetPaymentMethod = "set_payment_method"
	operationComplete         = "complete"
	operationCancel           = "cancel"
	operationRefreshBalance   = "refresh_balance"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	defaultTaxRate    = "0.20"
	defaultSessionTTL = 30 * time.Minute
)
