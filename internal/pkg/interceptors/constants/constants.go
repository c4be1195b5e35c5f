// Package constants names the headers and context keys shared by the HTTP
// edge, the gRPC interceptors and the outbound adapters.
package constants

import "context"

// Wire names. gRPC metadata keys are lower-case; net/http canonicalises them.
const (
	HeaderAuthorization   = "authorization"
	HeaderXRequestId      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"
	HeaderXSessionId      = "x-session-id"
)

// contextKey keeps these values from colliding with other packages' keys.
type contextKey string

const (
	ContextKeyRequestID      contextKey = HeaderXRequestId
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
	// ContextKeySessionID holds the storefront session (the JWT subject).
	ContextKeySessionID contextKey = HeaderXSessionId
)

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
