package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/spinshelf/spinshelf-backend/api/controllers"
	"github.com/spinshelf/spinshelf-backend/api/routes"
	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	checkoutsvc "github.com/spinshelf/spinshelf-backend/internal/checkout"
	"github.com/spinshelf/spinshelf-backend/internal/notifications"
	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/internal/payments"
	"github.com/spinshelf/spinshelf-backend/internal/promotions"
	"github.com/spinshelf/spinshelf-backend/internal/users"
	"github.com/spinshelf/spinshelf-backend/internal/wishlist"
	"github.com/spinshelf/spinshelf-backend/pkg/config"
	"github.com/spinshelf/spinshelf-backend/pkg/db"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/metrics"
	"github.com/spinshelf/spinshelf-backend/pkg/migrate"
	"github.com/spinshelf/spinshelf-backend/pkg/pricing"
	"github.com/spinshelf/spinshelf-backend/pkg/redis"
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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	promotionsRepo := promotions.NewRepository(gormDB)

	usersSvc, err := users.NewService(usersRepo, logg)
	exitOnWiring(logg, "users service", err)

	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, logg)
	exitOnWiring(logg, "catalog service", err)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	exitOnWiring(logg, "notifications service", err)

	cartSvc, err := cart.NewService(cartRepo, catalogRepo, dbClient, logg)
	exitOnWiring(logg, "cart service", err)

	promotionsSvc, err := promotions.NewService(promotionsRepo, cartRepo, catalogRepo, dbClient, logg)
	exitOnWiring(logg, "promotions service", err)

	checkoutSvc, err := checkoutsvc.NewService(
		checkoutsvc.NewRepository(gormDB),
		cartRepo,
		catalogRepo,
		catalogSvc,
		promotionsRepo,
		pricing.NewCalculator(cfg.Pricing),
		dbClient,
		notificationsSvc,
		logg,
	)
	exitOnWiring(logg, "checkout service", err)

	ordersSvc, err := orders.NewService(orders.NewRepository(gormDB), catalogSvc, usersSvc, dbClient, notificationsSvc, logg)
	exitOnWiring(logg, "orders service", err)

	paymentsSvc, err := payments.NewService(payments.NewRepository(gormDB), payments.NewSimulatedGateway(), dbClient, notificationsSvc, logg)
	exitOnWiring(logg, "payments service", err)

	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gormDB), catalogRepo, logg)
	exitOnWiring(logg, "wishlist service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Idempotency: redisClient,
			HTTPMetrics: metrics.NewHTTPMetrics(),
			ReadyChecks: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Users:         usersSvc,
			Catalog:       catalogSvc,
			Cart:          cartSvc,
			Promotions:    promotionsSvc,
			Checkout:      checkoutSvc,
			Orders:        ordersSvc,
			Payments:      paymentsSvc,
			Wishlist:      wishlistSvc,
			Notifications: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnWiring(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to wire "+component, err)
	os.Exit(1)
}
