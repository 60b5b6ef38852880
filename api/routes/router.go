package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abelkene001/mini-biz/api/controllers"
	"github.com/abelkene001/mini-biz/api/middleware"
	"github.com/abelkene001/mini-biz/internal/notifications"
	"github.com/abelkene001/mini-biz/internal/orders"
	"github.com/abelkene001/mini-biz/internal/payments"
	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/internal/shops"
	"github.com/abelkene001/mini-biz/internal/subscriptions"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/metrics"
	pkgredis "github.com/abelkene001/mini-biz/pkg/redis"
)

// Dependencies is everything the HTTP surface is built from. Idempotency and
// RateLimiter are nil when Redis is not configured.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Registry    *prometheus.Registry
	Readiness   []controllers.ReadinessCheck
	Accounts    middleware.AccountSyncer
	Gate        subscriptions.Gate
	Payments    payments.Service
	Shops       shops.Service
	Products    products.Service
	Orders      orders.Service
	Notifier    notifications.Notifier
	Idempotency pkgredis.IdempotencyStore
	RateLimiter pkgredis.RateLimiter
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if deps.Registry != nil {
		r.Use(metrics.NewHTTPMetrics(deps.Registry).Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Readiness, logg))
	})

	orderPolicy := middleware.NewRateLimitPolicy("orders", cfg.RateLimit.OrderWindow, cfg.RateLimit.OrderPerIP)
	auth := middleware.Auth(cfg.Auth, deps.Accounts, logg)
	gated := middleware.RequireActiveSubscription(deps.Gate, logg)

	idempotency := middleware.Idempotency(deps.Idempotency, cfg.Storage.ProofMaxBytes(), logg)

	r.Route("/api", func(r chi.Router) {
		// storefront and gateway callbacks
		r.Get("/shops/{slug}", controllers.Storefront(deps.Shops, logg))
		r.With(middleware.RateLimit(orderPolicy, deps.RateLimiter, logg), idempotency).
			Post("/orders", controllers.SubmitOrder(deps.Orders, cfg.Storage.ProofMaxBytes(), logg))
		r.Get("/payment/callback", controllers.PaymentCallback(deps.Payments, cfg.App.URL, logg))
		r.Post("/payment/verify", controllers.VerifyPayment(deps.Payments, logg))

		r.Group(func(r chi.Router) {
			// replays are scoped per account
			r.Use(auth, idempotency)

			r.Post("/subscription/check", controllers.CheckSubscription(deps.Gate, logg))
			r.Post("/payment/initialize", controllers.InitializePayment(deps.Payments, logg))
			if !cfg.App.IsProd() {
				r.Post("/notifications/test", controllers.TestNotification(deps.Notifier, logg))
			}

			r.Group(func(r chi.Router) {
				r.Use(gated)

				r.Post("/onboarding", controllers.Onboard(deps.Shops, logg))
				r.Get("/shops/me", controllers.MyShop(deps.Shops, logg))
				r.Patch("/shops/me", controllers.UpdateShopSettings(deps.Shops, logg))
				r.Post("/shops/me/hero-images", controllers.UploadHeroImage(deps.Shops, cfg.Storage.HeroImageMaxBytes(), logg))

				r.Get("/products", controllers.ListProducts(deps.Products, logg))
				r.Post("/products", controllers.CreateProduct(deps.Products, logg))
				r.Patch("/products/{productID}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/products/{productID}", controllers.DeleteProduct(deps.Products, logg))

				r.Get("/orders", controllers.ListOrders(deps.Orders, logg))
				r.Patch("/orders/{orderID}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			})
		})
	})

	return r
}
