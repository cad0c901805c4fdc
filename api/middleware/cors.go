package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/storefront-core/api/responses"
)

// CORS applies the configured origin policy. Browsers must be allowed to
// send and read Cart-Token for guest carts to work cross-origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", responses.CartTokenHeader, "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{responses.CartTokenHeader, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
