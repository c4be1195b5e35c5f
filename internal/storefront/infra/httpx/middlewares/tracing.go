package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
	"google.golang.org/grpc/metadata"
)

// AttachTracingMetadata copies chi's request id onto the context and into the
// outgoing gRPC metadata so downstream services log the same id.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		ctx := context.WithValue(r.Context(), constants.ContextKeyRequestID, requestID)
		ctx = metadata.AppendToOutgoingContext(ctx, constants.HeaderXRequestId, requestID)

		w.Header().Set(constants.HeaderXRequestId, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
