package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware resolves the caller's identity. Sessions are fronted by the
// edge proxy which injects X-User-ID; replace with real JWT validation when
// the identity service lands.
func AuthMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				respondError(w, log, http.StatusUnauthorized, "unauthorized", "missing user authentication")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
