package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/billing"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type httpHandler struct {
	logger         *zap.Logger
	store          *cartstore.Store
	service        *checkout.Service
	requestTimeout time.Duration
}

func (handler *httpHandler) handleGetCart(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"cart": newCartPayload(handler.store.Cart())})
}

func (handler *httpHandler) handleAddItem(ctx *gin.Context) {
	var request addItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	vertical, err := cart.ParseVertical(request.Vertical)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	current, err := handler.store.AddItem(ctx.Request.Context(), cart.NewItem{
		ProductID:   request.ProductID,
		Name:        request.Name,
		Description: request.Description,
		Price:       request.Price,
		Quantity:    request.Quantity,
		Vertical:    vertical,
		Metadata:    request.Metadata,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cart": newCartPayload(current)})
}

func (handler *httpHandler) handleUpdateQuantity(ctx *gin.Context) {
	var request updateQuantityRequest
	if err := ctx.ShouldBindJSON(&request); err != nil || request.Quantity == nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected quantity"))
		return
	}
	current, err := handler.store.UpdateQuantity(ctx.Request.Context(), ctx.Param("id"), *request.Quantity)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cart": newCartPayload(current)})
}

func (handler *httpHandler) handleRemoveItem(ctx *gin.Context) {
	current, err := handler.store.RemoveItem(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cart": newCartPayload(current)})
}

func (handler *httpHandler) handleClearCart(ctx *gin.Context) {
	if err := handler.store.Clear(ctx.Request.Context()); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cart": newCartPayload(handler.store.Cart())})
}

func (handler *httpHandler) handleGetCheckout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleInitializeCheckout(ctx *gin.Context) {
	var request initializeCheckoutRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.withTimeout(ctx.Request.Context())
	defer cancel()
	if _, err := handler.service.InitializeCheckout(requestCtx, request.promotion()); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleSetPaymentMethod(ctx *gin.Context) {
	var request paymentMethodRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	method, err := checkout.ParsePaymentMethod(request.Method)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if _, err := handler.service.SetPaymentMethod(ctx.Request.Context(), method); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleNextStep(ctx *gin.Context) {
	if _, err := handler.service.NextStep(); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handlePrevStep(ctx *gin.Context) {
	if _, err := handler.service.PrevStep(); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleCompleteCheckout(ctx *gin.Context) {
	if _, err := handler.service.CompleteCheckout(context.WithoutCancel(ctx.Request.Context())); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleCancelCheckout(ctx *gin.Context) {
	if _, err := handler.service.CancelCheckout(ctx.Request.Context()); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handler.checkoutState())
}

func (handler *httpHandler) handleCreditBonus(ctx *gin.Context) {
	amount, err := decimal.NewFromString(ctx.Query("amount"))
	if err != nil || amount.IsNegative() {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_amount", "amount must be a non-negative number"))
		return
	}
	bonus := credits.CalculateCreditBonus(amount)
	ctx.JSON(http.StatusOK, bonusPayload{
		Deposit:        amount,
		BonusPercent:   bonus.BonusPercent,
		BonusAmount:    bonus.BonusAmount,
		TotalCredits:   bonus.TotalCredits,
		FormattedTotal: credits.FormatCredits(bonus.TotalCredits),
	})
}

func (handler *httpHandler) checkoutState() checkoutPayload {
	payload := checkoutPayload{
		Step:    handler.service.Step().String(),
		Expired: handler.service.Expired(),
	}
	if session, ok := handler.service.Session(); ok {
		payload.Session = &session
	}
	if balance, ok := handler.service.Balance(); ok {
		payload.Balance = &balancePayload{
			Available:          balance.Available,
			Pending:            balance.Pending,
			Currency:           balance.Currency.String(),
			FormattedAvailable: credits.FormatCredits(balance.Available),
		}
	}
	return payload
}

func (handler *httpHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if handler.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, handler.requestTimeout)
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	statusCode, code := classifyError(err)
	fields := []zap.Field{zap.String("path", ctx.FullPath()), zap.Error(err)}
	if errorPath, ok := billing.PathOf(err); ok {
		fields = append(fields, zap.String("error_path", errorPath))
	}
	switch {
	case statusCode >= http.StatusInternalServerError:
		handler.logger.Error("request failed", fields...)
	case statusCode == http.StatusPaymentRequired:
		handler.logger.Warn("payment refused", fields...)
	}
	ctx.JSON(statusCode, errorResponse(code, err.Error()))
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrInvalidItemID),
		errors.Is(err, cart.ErrInvalidProductID),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidCurrency),
		errors.Is(err, cart.ErrInvalidVertical),
		errors.Is(err, cart.ErrInvalidMetadata),
		errors.Is(err, cart.ErrDuplicateProduct):
		return http.StatusBadRequest, "invalid_item"
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusBadRequest, "invalid_payment_method"
	case errors.Is(err, checkout.ErrInvalidPromotion):
		return http.StatusBadRequest, "invalid_promotion"
	case errors.Is(err, checkout.ErrPromotionNotApplicable):
		return http.StatusUnprocessableEntity, "promotion_not_applicable"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, "empty_cart"
	case errors.Is(err, checkout.ErrSessionExpired):
		return http.StatusGone, "session_expired"
	case errors.Is(err, checkout.ErrInvalidCheckoutState):
		return http.StatusConflict, "invalid_checkout_state"
	case errors.Is(err, checkout.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, checkout.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed"
	case errors.Is(err, checkout.ErrBalanceUnavailable):
		return http.StatusServiceUnavailable, "balance_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
