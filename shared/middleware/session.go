package middleware

import (
	"context"
	"net/http"
)

type contextKey struct{}

var userClaimsKey = contextKey{}

// Session reads the session cookie, verifies it and stores the resulting claims in the
// request context. Requests without a valid session pass through unauthenticated; handlers
// decide whether a session is required.
func Session[T any](cookieName string, verify func(token string) (T, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := verify(cookie.Value)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Session.
func ClaimsFromContext[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(userClaimsKey).(T)
	return claims, ok
}
