package billingd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/MarkoPoloResearchLab/billing/internal/orderrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// NewOrderServer registers backend on a gRPC server that logs every call.
func NewOrderServer(backend orderrpc.OrderServiceServer, logger *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	orderrpc.RegisterOrderServiceServer(grpcServer, backend)
	return grpcServer
}

// ServeOrders runs the in-memory order API on listenAddr until ctx ends.
func ServeOrders(ctx context.Context, listenAddr string, backend orderrpc.OrderServiceServer, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	grpcServer := NewOrderServer(backend, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("order api starting", zap.String("listen_addr", listener.Addr().String()))
		errCh <- grpcServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		grpcServer.GracefulStop()
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, request any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		response, err := handler(ctx, request)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(started)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil {
			logger.Warn("order api call failed", append(fields, zap.Error(err))...)
			return response, err
		}
		logger.Debug("order api call", fields...)
		return response, nil
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
