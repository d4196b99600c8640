// Package oplog writes checkout and cart store operation logs through zap.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	messageCheckout  = "checkout operation"
	messageCartStore = "cart operation"
)

// Logger implements checkout.OperationLogger and cartstore.OperationLogger.
type Logger struct {
	logger *zap.Logger
}

// New wraps logger. A nil logger discards everything.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

func (logger *Logger) LogOperation(ctx context.Context, entry checkout.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.SessionID != "" {
		fields = append(fields, zap.String("session_id", entry.SessionID))
	}
	if entry.SessionStatus != "" {
		fields = append(fields, zap.String("session_status", entry.SessionStatus.String()))
	}
	if entry.PaymentMethod != checkout.PaymentNone {
		fields = append(fields, zap.String("payment_method", entry.PaymentMethod.String()))
	}
	if !entry.Amount.IsZero() {
		fields = append(fields, zap.String("amount", entry.Amount.StringFixed(2)))
	}
	if entry.OrderID != "" {
		fields = append(fields, zap.String("order_id", entry.OrderID))
	}
	logger.write(messageCheckout, entry.Error, fields)
}

// CartStore returns the cartstore.OperationLogger view of logger.
func (logger *Logger) CartStore() cartstore.OperationLogger {
	return cartStoreLogger{logger: logger}
}

type cartStoreLogger struct {
	logger *Logger
}

func (adapter cartStoreLogger) LogOperation(ctx context.Context, entry cartstore.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.Int("item_count", entry.ItemCount),
		zap.String("total", entry.Total.StringFixed(2)),
	}
	if entry.ItemID != "" {
		fields = append(fields, zap.String("item_id", entry.ItemID))
	}
	if entry.ProductID != "" {
		fields = append(fields, zap.String("product_id", entry.ProductID))
	}
	if entry.Quantity != 0 {
		fields = append(fields, zap.Int("quantity", entry.Quantity))
	}
	adapter.logger.write(messageCartStore, entry.Error, fields)
}

func (logger *Logger) write(message string, err error, fields []zap.Field) {
	level := zapcore.InfoLevel
	if err != nil {
		level = zapcore.WarnLevel
		fields = append(fields, zap.Error(err))
	}
	if checked := logger.logger.Check(level, message); checked != nil {
		checked.Write(fields...)
	}
}
