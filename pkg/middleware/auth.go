package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/response"
)

type ctxKey int

const userKey ctxKey = iota

// Auth validates the Bearer session token and stores the claims in the
// request context. Handlers behind it can rely on UserFromCtx returning a
// non-nil value.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := auth.ValidateSessionToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromCtx returns the session claims stored by Auth, or nil when the
// request did not pass through it.
func UserFromCtx(ctx context.Context) *auth.SessionClaims {
	claims, _ := ctx.Value(userKey).(*auth.SessionClaims)
	return claims
}
