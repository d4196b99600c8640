// Package billingd assembles the cart store, checkout service, order API client and HTTP
// surface into a running process.
package billingd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/billing/internal/config"
	"github.com/MarkoPoloResearchLab/billing/internal/httpapi"
	"github.com/MarkoPoloResearchLab/billing/internal/oplog"
	"github.com/MarkoPoloResearchLab/billing/internal/orderrpc"
	"github.com/MarkoPoloResearchLab/billing/internal/slot/fileslot"
	"github.com/MarkoPoloResearchLab/billing/internal/slot/gormslot"
	"github.com/MarkoPoloResearchLab/billing/internal/slot/redisslot"
	"github.com/MarkoPoloResearchLab/billing/pkg/cart"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const localOrderListenAddr = "127.0.0.1:0"

// Run serves the billing API until ctx ends.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	operations := oplog.New(logger)

	slot, closeSlot, err := OpenSlot(ctx, cfg, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeSlot(); closeErr != nil {
			logger.Warn("slot close error", zap.Error(closeErr))
		}
	}()

	store, err := cartstore.New(ctx, slot, cartstore.WithOperationLogger(operations.CartStore()))
	if err != nil {
		return fmt.Errorf("cart store: %w", err)
	}
	unsubscribe := store.Subscribe(func(current cart.Cart) {
		logger.Debug("cart changed", zap.Int("item_count", len(current.Items)))
	})
	defer unsubscribe()

	conn, stopOrders, err := connectOrderAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopOrders()
	defer func() { _ = conn.Close() }()

	client := orderrpc.NewClient(
		conn,
		orderrpc.WithTimeout(cfg.OrderTimeout),
		orderrpc.WithBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout),
		orderrpc.WithStateChangeHook(func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("order api breaker", zap.String("method", name), zap.String("from", from.String()), zap.String("to", to.String()))
		}),
	)

	service, err := checkout.NewService(
		store,
		client,
		nowUTC,
		checkout.WithConfig(checkout.Config{TaxRate: cfg.TaxRateDecimal(), SessionTTL: cfg.SessionTTL}),
		checkout.WithBalanceSource(client),
		checkout.WithOperationLogger(operations),
	)
	if err != nil {
		return fmt.Errorf("checkout service: %w", err)
	}

	router := httpapi.NewRouter(store, service, logger, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.OrderTimeout * 2,
	})
	return httpapi.Run(ctx, cfg.ListenAddr, router, logger)
}

// OpenSlot picks the cart slot backend from the slot URL scheme. The returned close
// function releases the backend's connections.
func OpenSlot(ctx context.Context, cfg config.Config, filesystem afero.Fs) (cartstore.Slot, func() error, error) {
	scheme, err := config.SlotScheme(cfg.SlotURL)
	if err != nil {
		return nil, nil, err
	}
	switch scheme {
	case config.SlotSchemeRedis, config.SlotSchemeRedisTLS:
		client, err := redisslot.Dial(ctx, cfg.SlotURL)
		if err != nil {
			return nil, nil, err
		}
		return redisslot.New(client, cfg.SlotKey, redisslot.WithTTL(cfg.SlotTTL)), client.Close, nil
	case config.SlotSchemeFile:
		directory, err := fileDirectory(cfg.SlotURL)
		if err != nil {
			return nil, nil, err
		}
		return fileslot.New(filesystem, directory, cfg.SlotKey), func() error { return nil }, nil
	default:
		db, cleanup, err := gormslot.Open(ctx, cfg.SlotURL)
		if err != nil {
			return nil, nil, err
		}
		return gormslot.New(db, cfg.SlotKey), cleanup, nil
	}
}

func fileDirectory(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse slot url: %w", err)
	}
	directory := parsed.Path
	if parsed.Host != "" {
		directory = filepath.Join(parsed.Host, parsed.Path)
	}
	if strings.TrimSpace(directory) == "" {
		return "", errors.New("file slot url needs a directory")
	}
	return filepath.Clean(directory), nil
}

func connectOrderAPI(ctx context.Context, cfg config.Config, logger *zap.Logger) (*grpc.ClientConn, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.OrderTimeout)
	defer cancel()
	if !cfg.LocalOrderAPI {
		conn, err := orderrpc.Dial(dialCtx, cfg.OrderAddress, cfg.OrderInsecure)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() {}, nil
	}

	listener, err := net.Listen("tcp", localOrderListenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("local order api listen: %w", err)
	}
	grpcServer := NewOrderServer(orderrpc.NewLocalOrderService(cfg.LocalCreditsDecimal()), logger)
	go func() {
		if serveErr := grpcServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			logger.Error("local order api stopped", zap.Error(serveErr))
		}
	}()
	logger.Info("local order api listening", zap.String("addr", listener.Addr().String()))

	conn, err := orderrpc.Dial(dialCtx, listener.Addr().String(), true)
	if err != nil {
		grpcServer.Stop()
		return nil, nil, err
	}
	return conn, grpcServer.GracefulStop, nil
}
