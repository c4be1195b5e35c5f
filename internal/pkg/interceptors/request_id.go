package interceptors

import (
	"context"

	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
	"google.golang.org/grpc/metadata"
)

// GetMetadataValue resolves key from the context values first, then from the
// incoming and outgoing gRPC metadata. Returns "" when nothing is found.
func GetMetadataValue(ctx context.Context, key string) string {
	if v, ok := ctx.Value(contextKeyFor(key)).(string); ok && v != "" {
		return v
	}

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(key); len(vals) > 0 {
			return vals[0]
		}
	}

	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if vals := md.Get(key); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// WithIdempotencyKey stores key on ctx and appends it to the outgoing gRPC
// metadata so the downstream service can deduplicate the call.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
	return metadata.AppendToOutgoingContext(ctx, constants.HeaderXIdempotencyKey, key)
}

func contextKeyFor(key string) any {
	switch key {
	case constants.HeaderXRequestId:
		return constants.ContextKeyRequestID
	case constants.HeaderXIdempotencyKey:
		return constants.ContextKeyIdempotencyKey
	case constants.HeaderXSessionId:
		return constants.ContextKeySessionID
	default:
		return key
	}
}
