package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-core/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-core/api/controllers/orders"
	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-core/internal/checkout"
	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/internal/ownership"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
)

// Store is the redis surface the HTTP layer needs for idempotency and rate limits.
type Store interface {
	redis.IdempotencyStore
	controllers.Pinger
	RateLimitKey(scope string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Dependencies are the services the router mounts.
type Dependencies struct {
	DB           controllers.Pinger
	Store        Store
	Gatherer     prometheus.Gatherer
	HTTPMetrics  *metrics.HTTPMetrics
	Carts        cart.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Manager
	SellerOrders orders.SellerOrders
	Owners       ownership.Resolver
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Store != nil {
		readiness["redis"] = deps.Store
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	policy := middleware.NewRateLimitPolicy("storefront", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitPerIP, cfg.HTTP.RateLimitPerCart)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartToken(logg))
		r.Use(middleware.OwnershipMemo)
		r.Use(middleware.RateLimit(policy, deps.Store, logg))
		r.Use(middleware.Idempotency(deps.Store, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Carts, logg))
			r.Patch("/items/{key}", cartcontrollers.CartUpdateItem(deps.Carts, logg))
			r.Post("/items/{key}/increment", cartcontrollers.CartIncrementItem(deps.Carts, logg))
			r.Delete("/items/{key}", cartcontrollers.CartRemoveItem(deps.Carts, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.CreateOrder(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(deps.Orders, logg))
			r.Post("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
		})

		r.Get("/sellers/{sellerId}/orders", ordercontrollers.SellerOrders(deps.SellerOrders, logg))
		r.Post("/ownership/resolve", controllers.ResolveOwners(deps.Owners, logg))
	})

	return r
}
