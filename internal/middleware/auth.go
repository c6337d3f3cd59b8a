package middleware

import (
	"context"
	"net/http"
	"strings"

	"accounts-service/pkg/response"
)

type contextKey string

// ContextUserID carries the authenticated user id through the request
// context.
const ContextUserID contextKey = "user_id"

// Authenticator verifies a bearer token, including that its session is
// still live, and returns the user id it carries.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// user id in the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id from the context.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextUserID).(string)
	return userID, ok && userID != ""
}
