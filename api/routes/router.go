package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mgastelum/storefront-backend/api/controllers"
	"github.com/mgastelum/storefront-backend/api/middleware"
	authsvc "github.com/mgastelum/storefront-backend/internal/auth"
	bannersvc "github.com/mgastelum/storefront-backend/internal/banners"
	cartsvc "github.com/mgastelum/storefront-backend/internal/cart"
	catalogsvc "github.com/mgastelum/storefront-backend/internal/catalog"
	productsvc "github.com/mgastelum/storefront-backend/internal/products"
	settingsvc "github.com/mgastelum/storefront-backend/internal/settings"
	wishlistsvc "github.com/mgastelum/storefront-backend/internal/wishlist"
	"github.com/mgastelum/storefront-backend/pkg/auth/session"
	"github.com/mgastelum/storefront-backend/pkg/config"
	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/logger"
	"github.com/mgastelum/storefront-backend/pkg/metrics"
	"github.com/mgastelum/storefront-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	sessions sessionManager,
	authService authsvc.Service,
	cartService cartsvc.Service,
	productService productsvc.Service,
	catalogService catalogsvc.Service,
	bannerService bannersvc.Service,
	settingsService settingsvc.Service,
	wishlistService wishlistsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware())
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.SessionID(logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
		r.Post("/refresh", controllers.Refresh(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.Logout(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Get("/me", controllers.Me(authService, logg))
	})

	// Public storefront surface. No auth required.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/settings/public", controllers.PublicSettings(settingsService, logg))
		r.Get("/products", controllers.ListProducts(productService, logg))
		r.Get("/products/{idOrSlug}", controllers.GetProduct(productService, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, false, logg))
		r.Get("/brands", controllers.ListBrands(catalogService, logg))
		r.Get("/banners", controllers.LiveBanners(bannerService, logg))

		// Cart works for both anonymous sessions and signed-in users.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.SessionID(logg))
			r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Get("/", controllers.Wishlist(wishlistService, logg))
			r.Post("/", controllers.WishlistAdd(wishlistService, logg))
			r.Delete("/{productID}", controllers.WishlistRemove(wishlistService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(productService, logg))
			r.Get("/{productID}", controllers.AdminGetProduct(productService, logg))
			r.Patch("/{productID}", controllers.AdminUpdateProduct(productService, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(productService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(catalogService, true, logg))
			r.Post("/", controllers.AdminCreateCategory(catalogService, logg))
			r.Put("/{categoryID}", controllers.AdminUpdateCategory(catalogService, logg))
			r.Delete("/{categoryID}", controllers.AdminDeleteCategory(catalogService, logg))
		})

		r.Route("/brands", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateBrand(catalogService, logg))
			r.Put("/{brandID}", controllers.AdminUpdateBrand(catalogService, logg))
			r.Delete("/{brandID}", controllers.AdminDeleteBrand(catalogService, logg))
		})

		r.Route("/banners", func(r chi.Router) {
			r.Get("/", controllers.AdminListBanners(bannerService, logg))
			r.Post("/", controllers.AdminCreateBanner(bannerService, logg))
			r.Put("/{bannerID}", controllers.AdminUpdateBanner(bannerService, logg))
			r.Delete("/{bannerID}", controllers.AdminDeleteBanner(bannerService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.ListSettings(settingsService, logg))
			r.Patch("/", controllers.BulkUpsertSettings(settingsService, logg))
			r.Get("/group/{group}", controllers.ListSettingsGroup(settingsService, logg))
			r.Get("/{key}", controllers.GetSetting(settingsService, logg))
			r.Patch("/{key}", controllers.UpsertSetting(settingsService, logg))
		})
	})

	return r
}
