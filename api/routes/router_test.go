package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/mgastelum/storefront-backend/internal/auth"
	bannersvc "github.com/mgastelum/storefront-backend/internal/banners"
	cartsvc "github.com/mgastelum/storefront-backend/internal/cart"
	catalogsvc "github.com/mgastelum/storefront-backend/internal/catalog"
	productsvc "github.com/mgastelum/storefront-backend/internal/products"
	settingsvc "github.com/mgastelum/storefront-backend/internal/settings"
	pkgAuth "github.com/mgastelum/storefront-backend/pkg/auth"
	"github.com/mgastelum/storefront-backend/pkg/config"
	"github.com/mgastelum/storefront-backend/pkg/enums"
	"github.com/mgastelum/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Login(ctx context.Context, input authsvc.LoginInput, anonymousSessionID string) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (authsvc.UserDTO, error) {
	return authsvc.UserDTO{ID: userID}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, key cartsvc.OwnerKey) (cartsvc.CartDTO, error) {
	return cartsvc.EmptyCartDTO(key), nil
}

func (stubCartService) AddItem(ctx context.Context, key cartsvc.OwnerKey, productID uuid.UUID, quantity int) (cartsvc.CartDTO, error) {
	return cartsvc.EmptyCartDTO(key), nil
}

func (stubCartService) UpdateItem(ctx context.Context, key cartsvc.OwnerKey, itemID uuid.UUID, quantity int) (cartsvc.CartDTO, error) {
	return cartsvc.EmptyCartDTO(key), nil
}

func (stubCartService) RemoveItem(ctx context.Context, key cartsvc.OwnerKey, itemID uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.EmptyCartDTO(key), nil
}

func (stubCartService) Clear(ctx context.Context, key cartsvc.OwnerKey) (cartsvc.CartDTO, error) {
	return cartsvc.EmptyCartDTO(key), nil
}

func (stubCartService) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, params productsvc.ListParams) (productsvc.ProductPageDTO, error) {
	return productsvc.ProductPageDTO{Items: []productsvc.ProductDTO{}}, nil
}

func (stubProductService) GetByIDOrSlug(ctx context.Context, idOrSlug string) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateProductInput) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]catalogsvc.CategoryDTO, error) {
	return []catalogsvc.CategoryDTO{}, nil
}

func (stubCatalogService) CreateCategory(ctx context.Context, input catalogsvc.CategoryInput) (catalogsvc.CategoryDTO, error) {
	return catalogsvc.CategoryDTO{}, nil
}

func (stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalogsvc.CategoryInput) (catalogsvc.CategoryDTO, error) {
	return catalogsvc.CategoryDTO{}, nil
}

func (stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubCatalogService) ListBrands(ctx context.Context) ([]catalogsvc.BrandDTO, error) {
	return []catalogsvc.BrandDTO{}, nil
}

func (stubCatalogService) CreateBrand(ctx context.Context, input catalogsvc.BrandInput) (catalogsvc.BrandDTO, error) {
	return catalogsvc.BrandDTO{}, nil
}

func (stubCatalogService) UpdateBrand(ctx context.Context, id uuid.UUID, input catalogsvc.BrandInput) (catalogsvc.BrandDTO, error) {
	return catalogsvc.BrandDTO{}, nil
}

func (stubCatalogService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubBannerService struct{}

func (stubBannerService) ListLive(ctx context.Context, placement string) ([]bannersvc.BannerDTO, error) {
	return []bannersvc.BannerDTO{}, nil
}

func (stubBannerService) ListAll(ctx context.Context) ([]bannersvc.BannerDTO, error) {
	return []bannersvc.BannerDTO{}, nil
}

func (stubBannerService) Create(ctx context.Context, input bannersvc.BannerInput) (bannersvc.BannerDTO, error) {
	return bannersvc.BannerDTO{}, nil
}

func (stubBannerService) Update(ctx context.Context, id uuid.UUID, input bannersvc.BannerInput) (bannersvc.BannerDTO, error) {
	return bannersvc.BannerDTO{}, nil
}

func (stubBannerService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubSettingsService struct{}

func (stubSettingsService) Get(ctx context.Context, key string) (settingsvc.SettingDTO, error) {
	return settingsvc.SettingDTO{Key: key}, nil
}

func (stubSettingsService) List(ctx context.Context) ([]settingsvc.SettingDTO, error) {
	return []settingsvc.SettingDTO{}, nil
}

func (stubSettingsService) ListByGroup(ctx context.Context, group string) ([]settingsvc.SettingDTO, error) {
	return []settingsvc.SettingDTO{}, nil
}

func (stubSettingsService) Upsert(ctx context.Context, input settingsvc.UpsertInput) (settingsvc.SettingDTO, error) {
	return settingsvc.SettingDTO{Key: input.Key, Value: input.Value}, nil
}

func (stubSettingsService) BulkUpsert(ctx context.Context, inputs []settingsvc.UpsertInput) ([]settingsvc.BulkUpsertResult, error) {
	return []settingsvc.BulkUpsertResult{}, nil
}

func (stubSettingsService) GetPublic(ctx context.Context) (map[string]string, error) {
	return map[string]string{"store_name": "Mercado General"}, nil
}

type stubWishlistService struct{}

func (stubWishlistService) List(ctx context.Context, userID uuid.UUID) ([]productsvc.ProductDTO, error) {
	return []productsvc.ProductDTO{}, nil
}

func (stubWishlistService) ListIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}

func (stubWishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (stubWishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return NewRouter(
		cfg,
		nil,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		stubSessionManager{},
		stubAuthService{},
		stubCartService{},
		stubProductService{},
		stubCatalogService{},
		stubBannerService{},
		stubSettingsService{},
		stubWishlistService{},
	)
}

func mintToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicSettingsReachableWithoutAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/public", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartRejectsAnonymousWithoutSessionHeader(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAcceptsSessionHeader(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("X-Session-Id", "sess-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartAcceptsBearerToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settings/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settings/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminGroupAcceptsAdminToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/settings/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.MemberRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
