package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/internal/ownership"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type contextKey string

const ctxCartToken contextKey = "cart_token"

// maxCartTokenLength bounds what is forwarded upstream and used in cache keys.
const maxCartTokenLength = 512

// CartTokenFromContext returns the caller's cart token, or "" for a new cart.
func CartTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartToken).(string); ok {
		return v
	}
	return ""
}

// WithCartToken injects the cart token into the context.
func WithCartToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartToken, token)
}

// CartToken lifts the Cart-Token header into the request context.
func CartToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(responses.CartTokenHeader))
			if len(token) > maxCartTokenLength {
				token = ""
			}
			ctx := WithCartToken(r.Context(), token)
			if logg != nil && token != "" {
				ctx = logg.WithCartToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnershipMemo gives each request its own ownership cache.
func OwnershipMemo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ownership.WithMemo(r.Context())))
	})
}
