// Package httpapi exports the cart store and checkout service to UI callers over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Options carries what the router needs besides the store and service.
type Options struct {
	AllowedOrigins []string
	// RequestTimeout bounds checkout initialization. Completion is never cut short.
	RequestTimeout time.Duration
}

// Run serves handler on listenAddr until ctx ends.
func Run(ctx context.Context, listenAddr string, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("billing api listening", zap.String("addr", listenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine.
func NewRouter(store *cartstore.Store, service *checkout.Service, logger *zap.Logger, options Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{
		logger:         logger,
		store:          store,
		service:        service,
		requestTimeout: options.RequestTimeout,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     options.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/cart", handler.handleGetCart)
	api.POST("/cart/items", handler.handleAddItem)
	api.PATCH("/cart/items/:id", handler.handleUpdateQuantity)
	api.DELETE("/cart/items/:id", handler.handleRemoveItem)
	api.DELETE("/cart", handler.handleClearCart)

	api.GET("/checkout", handler.handleGetCheckout)
	api.POST("/checkout", handler.handleInitializeCheckout)
	api.POST("/checkout/payment-method", handler.handleSetPaymentMethod)
	api.POST("/checkout/next", handler.handleNextStep)
	api.POST("/checkout/prev", handler.handlePrevStep)
	api.POST("/checkout/complete", handler.handleCompleteCheckout)
	api.POST("/checkout/cancel", handler.handleCancelCheckout)

	api.GET("/credits/bonus", handler.handleCreditBonus)

	return router
}
