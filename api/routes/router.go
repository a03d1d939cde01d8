package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fluxo-pos/api/controllers"
	"github.com/angelmondragon/fluxo-pos/api/middleware"
	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/internal/checkout"
	"github.com/angelmondragon/fluxo-pos/internal/offlinesync"
	"github.com/angelmondragon/fluxo-pos/pkg/config"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/redis"
)

// Deps is everything the agent's HTTP surface is built from. Idempotency is
// optional; without it requests are never replayed from cache.
type Deps struct {
	LocalStore   controllers.Pinger
	Connectivity controllers.OnlineReporter
	Breaker      interface{ State() string }
	Idempotency  redis.IdempotencyStore
	Metrics      prometheus.Gatherer

	Sessions *cart.Sessions
	Checkout checkout.Service
	Catalog  controllers.Catalog
	Sync     controllers.SyncOrchestrator
	Submit   offlinesync.SubmitFunc
	Queue    controllers.PendingQueue
	Register controllers.Register
	Kitchen  controllers.Kitchen
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Terminal(cfg.App.TerminalID),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness(deps)))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, logg))
		}

		r.Route("/cart/{sessionId}", func(r chi.Router) {
			r.Get("/", controllers.CartQuote(deps.Checkout, logg))
			r.Delete("/", controllers.CartClear(deps.Sessions, logg))
			r.Post("/items", controllers.CartAddItem(deps.Sessions, deps.Catalog, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Sessions, logg))
			r.Post("/checkout", controllers.CartCheckout(deps.Checkout, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
			r.Get("/customers", controllers.CatalogCustomers(deps.Catalog, logg))
			r.Get("/promotions", controllers.CatalogPromotions(deps.Catalog, logg))
			r.Post("/refresh", controllers.CatalogRefresh(deps.Catalog, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/", controllers.SyncState(deps.Sync, logg))
			r.Post("/", controllers.SyncDrain(deps.Sync, deps.Submit, deps.Connectivity, logg))
			r.Get("/pending", controllers.SyncPendingList(deps.Queue, logg))
			r.Get("/pending/{pendingId}", controllers.SyncPendingGet(deps.Queue, logg))
			r.Post("/pending/{pendingId}/requeue", controllers.SyncRequeue(deps.Queue, logg))
		})

		r.Route("/register", func(r chi.Router) {
			r.Get("/summary", controllers.RegisterSummary(deps.Register, logg))
			r.Post("/closings", controllers.RegisterClose(deps.Register, logg))
		})

		r.Route("/kitchen/orders", func(r chi.Router) {
			r.Get("/", controllers.KitchenOrders(deps.Kitchen, logg))
			r.Post("/{orderId}/complete", controllers.KitchenComplete(deps.Kitchen, logg))
			r.Post("/{orderId}/cancel", controllers.KitchenCancel(deps.Kitchen, logg))
		})
	})

	return r
}

func readiness(deps Deps) controllers.Readiness {
	ready := controllers.Readiness{
		Local:   deps.LocalStore,
		Online:  deps.Connectivity,
		Breaker: deps.Breaker,
	}
	if deps.Sessions != nil {
		ready.Sessions = deps.Sessions
	}
	return ready
}
