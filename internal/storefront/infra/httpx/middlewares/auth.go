package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/seating-storefront/internal/pkg/auth"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// RequireBearer rejects requests without a valid bearer token. The token, its
// claims and the session id (the token subject) are placed on the context.
func RequireBearer(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.BearerToken(r.Header.Get(constants.HeaderAuthorization))
			claims, err := v.Verify(raw)
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, auth.ErrMissingToken) {
					code = "missing_token"
				}
				slog.InfoContext(r.Context(), "rejected request", "reason", code, "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
				return
			}

			ctx := auth.WithToken(r.Context(), raw, claims)
			ctx = context.WithValue(ctx, constants.ContextKeySessionID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the session id placed on ctx by RequireBearer.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeySessionID).(string)
	return id
}
