// Package orderrpc is the gRPC contract of the external order/payment and balance APIs.
package orderrpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName             = "billing.v1.OrderService"
	SubmitOrderFullMethod   = "/" + ServiceName + "/SubmitOrder"
	GetBalanceFullMethod    = "/" + ServiceName + "/GetBalance"
	methodSubmitOrder       = "SubmitOrder"
	methodGetBalance        = "GetBalance"
	serviceDescriptorSource = "billing/v1/order.json"
)

// OrderServiceServer is implemented by order API backends.
type OrderServiceServer interface {
	SubmitOrder(ctx context.Context, request *SubmitOrderRequest) (*SubmitOrderResponse, error)
	GetBalance(ctx context.Context, request *GetBalanceRequest) (*GetBalanceResponse, error)
}

// RegisterOrderServiceServer attaches server to registrar.
func RegisterOrderServiceServer(registrar grpc.ServiceRegistrar, server OrderServiceServer) {
	registrar.RegisterService(&OrderServiceDesc, server)
}

// OrderServiceDesc describes billing.v1.OrderService.
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodSubmitOrder, Handler: submitOrderHandler},
		{MethodName: methodGetBalance, Handler: getBalanceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: serviceDescriptorSource,
}

func submitOrderHandler(server any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(SubmitOrderRequest)
	if err := decode(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return server.(OrderServiceServer).SubmitOrder(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: server, FullMethod: SubmitOrderFullMethod}
	handler := func(ctx context.Context, request any) (any, error) {
		return server.(OrderServiceServer).SubmitOrder(ctx, request.(*SubmitOrderRequest))
	}
	return interceptor(ctx, request, info, handler)
}

func getBalanceHandler(server any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(GetBalanceRequest)
	if err := decode(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return server.(OrderServiceServer).GetBalance(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: server, FullMethod: GetBalanceFullMethod}
	handler := func(ctx context.Context, request any) (any, error) {
		return server.(OrderServiceServer).GetBalance(ctx, request.(*GetBalanceRequest))
	}
	return interceptor(ctx, request, info, handler)
}
