package interceptors

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// TraceServerInterceptor copies the request id and idempotency key from the
// incoming gRPC metadata onto the handler context.
func TraceServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := firstValue(ctx, constants.HeaderXRequestId)
		idempotencyKey := firstValue(ctx, constants.HeaderXIdempotencyKey)

		newCtx := context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		newCtx = context.WithValue(newCtx, constants.ContextKeyIdempotencyKey, idempotencyKey)

		slog.InfoContext(newCtx, "grpc call",
			"method", info.FullMethod,
			"request_id", requestID,
			"idempotency_key", idempotencyKey,
		)

		return handler(newCtx, req)
	}
}

// TraceClientInterceptor forwards the request id stored on ctx as outgoing
// metadata, unless the caller already attached one.
func TraceClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if md, ok := metadata.FromOutgoingContext(ctx); !ok || len(md.Get(constants.HeaderXRequestId)) == 0 {
			if id := constants.RequestID(ctx); id != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, constants.HeaderXRequestId, id)
			}
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func firstValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
