package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mgastelum/storefront-backend/api/routes"
	authsvc "github.com/mgastelum/storefront-backend/internal/auth"
	bannersvc "github.com/mgastelum/storefront-backend/internal/banners"
	cartsvc "github.com/mgastelum/storefront-backend/internal/cart"
	catalogsvc "github.com/mgastelum/storefront-backend/internal/catalog"
	productsvc "github.com/mgastelum/storefront-backend/internal/products"
	settingsvc "github.com/mgastelum/storefront-backend/internal/settings"
	"github.com/mgastelum/storefront-backend/internal/users"
	wishlistsvc "github.com/mgastelum/storefront-backend/internal/wishlist"
	"github.com/mgastelum/storefront-backend/pkg/auth/session"
	"github.com/mgastelum/storefront-backend/pkg/config"
	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/logger"
	"github.com/mgastelum/storefront-backend/pkg/metrics"
	"github.com/mgastelum/storefront-backend/pkg/migrate"
	"github.com/mgastelum/storefront-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	productRepo := productsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())

	productService, err := productsvc.NewService(productsvc.ServiceParams{Repo: productRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		CartRepo:           cartRepo,
		Tx:                 dbClient,
		ProductRepo:        productRepo,
		MaxQuantityPerLine: cfg.Cart.MaxQuantityPerLine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Users:    users.NewRepository(dbClient.DB()),
		Sessions: sessionManager,
		Carts:    cartService,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalogsvc.NewService(catalogsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	bannerService, err := bannersvc.NewService(bannersvc.ServiceParams{
		Repo: bannersvc.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create banner service", err)
		os.Exit(1)
	}

	settingsService, err := settingsvc.NewService(settingsvc.ServiceParams{
		Repo:           settingsvc.NewRepository(dbClient.DB()),
		Cache:          redisClient,
		Logger:         logg,
		PublicCacheTTL: cfg.Settings.PublicCacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlistsvc.NewService(wishlistsvc.ServiceParams{
		Repo:        wishlistsvc.NewRepository(dbClient.DB()),
		ProductRepo: productRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			sessionManager,
			authService,
			cartService,
			productService,
			catalogService,
			bannerService,
			settingsService,
			wishlistService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
