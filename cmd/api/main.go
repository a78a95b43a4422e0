package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/partshop-backend/api/routes"
	"github.com/angelmondragon/partshop-backend/internal/auditlog"
	"github.com/angelmondragon/partshop-backend/internal/auth"
	"github.com/angelmondragon/partshop-backend/internal/orderitems"
	"github.com/angelmondragon/partshop-backend/internal/orders"
	"github.com/angelmondragon/partshop-backend/internal/parts"
	"github.com/angelmondragon/partshop-backend/internal/stores"
	"github.com/angelmondragon/partshop-backend/internal/users"
	"github.com/angelmondragon/partshop-backend/pkg/config"
	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
	"github.com/angelmondragon/partshop-backend/pkg/metrics"
	"github.com/angelmondragon/partshop-backend/pkg/migrate"
	"github.com/angelmondragon/partshop-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuthMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	storeRepo := stores.NewRepository(conn)
	partRepo := parts.NewRepository(conn)

	auditService, err := auditlog.NewService(auditlog.NewRepository(conn))
	requireService(logg, "audit log", err)

	userService, err := users.NewService(users.ServiceParams{
		Repo:  userRepo,
		Tx:    dbClient,
		Audit: auditService,
	})
	requireService(logg, "users", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Tx:             dbClient,
		Audit:          auditService,
		Metrics:        authMetrics,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		LockoutConfig:  cfg.Lockout,
	})
	requireService(logg, "auth", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		Tx:             dbClient,
		Audit:          auditService,
		PasswordConfig: cfg.Password,
	})
	requireService(logg, "register", err)

	storeService, err := stores.NewService(storeRepo)
	requireService(logg, "stores", err)

	partService, err := parts.NewService(partRepo, storeRepo, dbClient)
	requireService(logg, "parts", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(conn),
		Parts:   partRepo,
		Users:   userRepo,
		Tx:      dbClient,
		Metrics: orderMetrics,
	})
	requireService(logg, "orders", err)

	orderItemService, err := orderitems.NewService(orderitems.NewRepository(conn))
	requireService(logg, "order items", err)

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			httpMetrics,
			authService,
			registerService,
			userService,
			auditService,
			storeService,
			partService,
			orderService,
			orderItemService,
		),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
