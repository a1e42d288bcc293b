package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcastellan/terravia-backend/api/routes"
	"github.com/mcastellan/terravia-backend/internal/auth"
	"github.com/mcastellan/terravia-backend/internal/cart"
	"github.com/mcastellan/terravia-backend/internal/catalog"
	"github.com/mcastellan/terravia-backend/internal/checkout"
	"github.com/mcastellan/terravia-backend/internal/coupons"
	"github.com/mcastellan/terravia-backend/internal/notifications"
	"github.com/mcastellan/terravia-backend/internal/orders"
	"github.com/mcastellan/terravia-backend/internal/payments"
	"github.com/mcastellan/terravia-backend/internal/users"
	"github.com/mcastellan/terravia-backend/internal/wishlist"
	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/db"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/migrate"
	"github.com/mcastellan/terravia-backend/pkg/outbox"
	"github.com/mcastellan/terravia-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	usersRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	couponsRepo := coupons.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	wishlistRepo := wishlist.NewRepository(gormDB)

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}
	usersSvc, err := users.NewService(users.ServiceParams{Repo: usersRepo})
	if err != nil {
		return routes.Services{}, err
	}
	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo})
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		CartRepo: cartRepo,
		Catalog:  catalogRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}
	couponsSvc, err := coupons.NewService(coupons.ServiceParams{
		Repo: couponsRepo,
		Now:  time.Now,
	})
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:         dbClient,
		Cart:       cartSvc,
		CartRepo:   cartRepo,
		Coupons:    couponsSvc,
		OrdersRepo: ordersRepo,
		Outbox:     outboxSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Tx:     dbClient,
		Repo:   ordersRepo,
		Outbox: outboxSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}
	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Tx:         dbClient,
		Repo:       paymentsRepo,
		OrdersRepo: ordersRepo,
		Gateway:    payments.SimulatedGateway{},
		Outbox:     outboxSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}
	notificationsSvc, err := notifications.NewService(notifications.ServiceParams{Repo: notificationsRepo})
	if err != nil {
		return routes.Services{}, err
	}
	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:    wishlistRepo,
		Catalog: catalogRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Users:         usersSvc,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Coupons:       couponsSvc,
		Checkout:      checkoutSvc,
		Orders:        ordersSvc,
		Payments:      paymentsSvc,
		Notifications: notificationsSvc,
		Wishlist:      wishlistSvc,
	}, nil
}
