package payment

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "payment.v1.Payment"

	ChargeFullMethodName = "/" + ServiceName + "/Charge"
	RefundFullMethodName = "/" + ServiceName + "/Refund"
)

// PaymentServer is implemented by the payment service.
type PaymentServer interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}

// PaymentClient is the caller side of the contract.
type PaymentClient interface {
	Charge(ctx context.Context, req *ChargeRequest, opts ...grpc.CallOption) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest, opts ...grpc.CallOption) (*RefundResponse, error)
}

type paymentClient struct {
	cc grpc.ClientConnInterface
}

// NewPaymentClient returns a PaymentClient bound to cc.
func NewPaymentClient(cc grpc.ClientConnInterface) PaymentClient {
	return &paymentClient{cc: cc}
}

func (c *paymentClient) Charge(ctx context.Context, req *ChargeRequest, opts ...grpc.CallOption) (*ChargeResponse, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ChargeFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return chargeResponseFromStruct(out), nil
}

func (c *paymentClient) Refund(ctx context.Context, req *RefundRequest, opts ...grpc.CallOption) (*RefundResponse, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RefundFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return refundResponseFromStruct(out), nil
}

// RegisterPaymentServer registers srv on s.
func RegisterPaymentServer(s grpc.ServiceRegistrar, srv PaymentServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Charge", Handler: chargeHandler},
		{MethodName: "Refund", Handler: refundHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payment/v1/payment.proto",
}

func chargeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req any) (any, error) {
		s, ok := req.(*structpb.Struct)
		if !ok {
			return nil, fmt.Errorf("charge: unexpected request type %T", req)
		}
		res, err := srv.(PaymentServer).Charge(ctx, chargeRequestFromStruct(s))
		if err != nil {
			return nil, err
		}
		return res.toStruct()
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ChargeFullMethodName}
	return interceptor(ctx, in, info, handle)
}

func refundHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, req any) (any, error) {
		s, ok := req.(*structpb.Struct)
		if !ok {
			return nil, fmt.Errorf("refund: unexpected request type %T", req)
		}
		res, err := srv.(PaymentServer).Refund(ctx, refundRequestFromStruct(s))
		if err != nil {
			return nil, err
		}
		return res.toStruct()
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RefundFullMethodName}
	return interceptor(ctx, in, info, handle)
}
