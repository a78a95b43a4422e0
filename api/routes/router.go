package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/partshop-backend/api/controllers"
	"github.com/angelmondragon/partshop-backend/api/middleware"
	"github.com/angelmondragon/partshop-backend/internal/auditlog"
	"github.com/angelmondragon/partshop-backend/internal/auth"
	"github.com/angelmondragon/partshop-backend/internal/orderitems"
	"github.com/angelmondragon/partshop-backend/internal/orders"
	"github.com/angelmondragon/partshop-backend/internal/parts"
	"github.com/angelmondragon/partshop-backend/internal/stores"
	"github.com/angelmondragon/partshop-backend/internal/users"
	"github.com/angelmondragon/partshop-backend/pkg/config"
	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
	"github.com/angelmondragon/partshop-backend/pkg/metrics"
	"github.com/angelmondragon/partshop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	registerService auth.RegisterService,
	userService users.Service,
	auditService auditlog.Service,
	storeService stores.Service,
	partService parts.Service,
	orderService orders.Service,
	orderItemService orderitems.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	// Interfaces stay nil without redis so the middlewares skip themselves.
	var (
		limiter     redis.RateLimiter
		idempotency redis.IdempotencyStore
	)
	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["database"] = dbP
	}
	if redisClient != nil {
		limiter = redisClient
		idempotency = redisClient
		readiness["redis"] = redisClient
	}

	var accounts middleware.AccountChecker
	if userService != nil {
		accounts = userService
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, accounts, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UserMe(userService, logg))
			r.Put("/", controllers.UserUpdateMe(userService, logg))
			r.Delete("/", controllers.UserDeleteMe(userService, logg))
			r.Put("/password", controllers.UserChangePassword(authService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/users", controllers.AdminUserList(userService, logg))
			r.Post("/users/{userID}/unblock", controllers.AdminUnblockUser(userService, logg))
			r.Get("/logs", controllers.AdminAuditLogs(auditService, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(storeService, logg))
			r.Get("/{storeID}", controllers.StoreGet(storeService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/", controllers.StoreCreate(storeService, logg))
				r.Put("/{storeID}", controllers.StoreUpdate(storeService, logg))
				r.Delete("/{storeID}", controllers.StoreDelete(storeService, logg))
			})
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.PartList(partService, logg))
			r.Get("/{partID}", controllers.PartGet(partService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/", controllers.PartCreate(partService, logg))
				r.Put("/{partID}", controllers.PartUpdate(partService, logg))
				r.Delete("/{partID}", controllers.PartDelete(partService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(orderService, logg))
			r.With(middleware.Idempotency(idempotency, cfg.Idempotency.TTL, logg)).Post("/", controllers.OrderPlace(orderService, logg))
			r.Get("/{orderID}", controllers.OrderGet(orderService, logg))
			r.Delete("/{orderID}", controllers.OrderCancel(orderService, logg))
		})

		r.Route("/order-items", func(r chi.Router) {
			r.Get("/", controllers.OrderItemList(orderItemService, logg))
			r.Get("/{itemID}", controllers.OrderItemGet(orderItemService, logg))
		})
	})

	return r
}
