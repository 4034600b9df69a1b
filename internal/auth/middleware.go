package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const operatorContextKey contextKey = "operator"

// Middleware rejects requests without a valid bearer token and stores the
// verified operator claims on the request context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenStr == "" {
				unauthorized(w, "unauthorized")
				return
			}
			claims, err := ValidateToken(secret, tokenStr)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), operatorContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Operator returns the claims stored by Middleware, or nil outside a
// protected route.
func Operator(ctx context.Context) *OperatorClaims {
	claims, _ := ctx.Value(operatorContextKey).(*OperatorClaims)
	return claims
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
