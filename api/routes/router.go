package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenandoak/storefront-backend/api/controllers"
	webhookcontrollers "github.com/havenandoak/storefront-backend/api/controllers/webhooks"
	"github.com/havenandoak/storefront-backend/api/middleware"
	"github.com/havenandoak/storefront-backend/internal/auth"
	"github.com/havenandoak/storefront-backend/internal/coupons"
	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/internal/payments"
	"github.com/havenandoak/storefront-backend/internal/users"
	"github.com/havenandoak/storefront-backend/pkg/access"
	"github.com/havenandoak/storefront-backend/pkg/auth/session"
	"github.com/havenandoak/storefront-backend/pkg/config"
	"github.com/havenandoak/storefront-backend/pkg/db"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/metrics"
	"github.com/havenandoak/storefront-backend/pkg/outbox/idempotency"
	"github.com/havenandoak/storefront-backend/pkg/redis"
)

// Deps carries everything the router needs. Optional fields (gateway,
// metrics) may be nil; their routes degrade or disappear.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Sessions session.AccessSessionChecker

	AuthService    auth.Service
	OrdersService  orders.Service
	CouponsService coupons.Service
	UsersService   users.Service

	Gateway      payments.Gateway
	WebhookGuard *idempotency.Manager

	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(
			deps.OrdersService,
			deps.Gateway,
			deps.WebhookGuard,
			webhookNotificationURL(cfg),
			logg,
		))
	})

	// Storefront surface. Guests are welcome; a valid token attaches the
	// customer id for per-user coupon caps.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/api/v1/orders", controllers.CreateOrder(deps.OrdersService, logg))
		r.Get("/api/v1/orders/{orderNumber}", controllers.GetOrderByNumber(deps.OrdersService, logg))
		r.Post("/api/v1/coupons/validate", controllers.ValidateCoupon(deps.CouponsService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireOperation(access.OpOrdersList, logg)).
				Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
			r.With(middleware.RequireOperation(access.OpOrdersView, logg)).
				Get("/{orderId}", controllers.AdminOrderDetail(deps.OrdersService, logg))
			r.With(middleware.RequireOperation(access.OpOrdersShip, logg)).
				Post("/{orderId}/ship", controllers.AdminOrderShip(deps.OrdersService, logg))
			r.With(middleware.RequireOperation(access.OpOrdersUpdateStatus, logg)).
				Post("/{orderId}/status", controllers.AdminOrderStatus(deps.OrdersService, logg))
			r.With(middleware.RequireOperation(access.OpOrdersCancel, logg)).
				Post("/{orderId}/cancel", controllers.AdminOrderCancel(deps.OrdersService, logg))
			r.With(middleware.RequireOperation(access.OpOrdersDelete, logg)).
				Delete("/{orderId}", controllers.AdminOrderDelete(deps.OrdersService, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Use(middleware.RequireOperation(access.OpCouponsManage, logg))
			r.Get("/", controllers.AdminCouponList(deps.CouponsService, logg))
			r.Post("/", controllers.AdminCouponCreate(deps.CouponsService, logg))
			r.Get("/{couponId}", controllers.AdminCouponGet(deps.CouponsService, logg))
			r.Patch("/{couponId}", controllers.AdminCouponUpdate(deps.CouponsService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireOperation(access.OpUsersManageRoles, logg))
			r.Patch("/{userId}/role", controllers.AdminUserChangeRole(deps.UsersService, logg))
		})
	})

	return r
}

func webhookNotificationURL(cfg *config.Config) string {
	base := strings.TrimRight(cfg.App.PublicURL, "/")
	return base + "/api/v1/webhooks/square"
}
