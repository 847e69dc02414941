package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/storelinehq/storeline-backend/internal/auth"
	cartsvc "github.com/storelinehq/storeline-backend/internal/cart"
	"github.com/storelinehq/storeline-backend/internal/catalog"
	commentsvc "github.com/storelinehq/storeline-backend/internal/comments"
	ordersvc "github.com/storelinehq/storeline-backend/internal/orders"
	ticketsvc "github.com/storelinehq/storeline-backend/internal/tickets"
	pkgAuth "github.com/storelinehq/storeline-backend/pkg/auth"
	"github.com/storelinehq/storeline-backend/pkg/auth/session"
	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/logger"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.RegisterResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) ActivatePhone(ctx context.Context, req authsvc.ActivateRequest) error {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.TokenPair, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

type stubCatalogService struct{}

func (stubCatalogService) FilterShop(ctx context.Context, input catalog.FilterShopInput) (*catalog.FilterResult, error) {
	return &catalog.FilterResult{Products: []catalog.ProductSummary{}}, nil
}

func (stubCatalogService) FilterMobile(ctx context.Context, input catalog.FilterMobileInput) (*catalog.MobileFilterResult, error) {
	return &catalog.MobileFilterResult{Products: []catalog.ProductSummary{}}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategorySummary, error) {
	return []catalog.CategorySummary{}, nil
}

func (stubCatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.CategorySummary, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*catalog.ProductDetail, error) {
	panic("unimplemented")
}

type stubCatalogAdminService struct{}

func (stubCatalogAdminService) CreateCategory(ctx context.Context, input catalog.CategoryInput) (*models.Category, error) {
	return &models.Category{ID: uuid.New(), Name: input.Name, Slug: input.Slug}, nil
}

func (stubCatalogAdminService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.CategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogAdminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogAdminService) CreateSubCategory(ctx context.Context, categoryID uuid.UUID, input catalog.NamedSlugInput) (*models.SubCategory, error) {
	panic("unimplemented")
}

func (stubCatalogAdminService) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogAdminService) CreateType(ctx context.Context, subCategoryID uuid.UUID, input catalog.NamedSlugInput) (*models.ProductType, error) {
	panic("unimplemented")
}

func (stubCatalogAdminService) DeleteType(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogAdminService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogAdminService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.ProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogAdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) GetActive(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New(), UserID: userID, Status: enums.CartStatusActive}, nil
}

func (stubCartService) PutItems(ctx context.Context, userID uuid.UUID, lines []cartsvc.ItemInput) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Place(ctx context.Context, userID uuid.UUID) (*ordersvc.Placement, error) {
	panic("unimplemented")
}

func (stubOrdersService) HandlePaymentCallback(ctx context.Context, orderID uuid.UUID, token string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, actor ordersvc.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Confirm(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Return(ctx context.Context, actor ordersvc.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, actor ordersvc.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListAll(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, error) {
	return []models.Order{}, nil
}

type stubCommentsService struct{}

func (stubCommentsService) Create(ctx context.Context, input commentsvc.CreateInput) (*models.Comment, error) {
	panic("unimplemented")
}

func (stubCommentsService) ListForProduct(ctx context.Context, productID uuid.UUID, page pagination.Page) ([]models.Comment, error) {
	return []models.Comment{}, nil
}

func (stubCommentsService) ListPending(ctx context.Context, page pagination.Page) ([]models.Comment, error) {
	panic("unimplemented")
}

func (stubCommentsService) Approve(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCommentsService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCommentsService) ProductRatingSummary(ctx context.Context, productID uuid.UUID) (int, *float64, error) {
	panic("unimplemented")
}

type stubTicketsService struct{}

func (stubTicketsService) Create(ctx context.Context, input ticketsvc.CreateInput) (*models.Ticket, error) {
	panic("unimplemented")
}

func (stubTicketsService) Reply(ctx context.Context, input ticketsvc.ReplyInput) (*models.Ticket, error) {
	panic("unimplemented")
}

func (stubTicketsService) Close(ctx context.Context, actor ticketsvc.Actor, ticketID uuid.UUID) error {
	panic("unimplemented")
}

func (stubTicketsService) Get(ctx context.Context, actor ticketsvc.Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	panic("unimplemented")
}

func (stubTicketsService) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Ticket, error) {
	panic("unimplemented")
}

func (stubTicketsService) ListAll(ctx context.Context, status *enums.TicketStatus, page pagination.Page) ([]models.Ticket, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubSessionChecker{},
		Services{
			Auth:         stubAuthService{},
			Catalog:      stubCatalogService{},
			CatalogAdmin: stubCatalogAdminService{},
			Cart:         stubCartService{},
			Orders:       stubOrdersService{},
			Comments:     stubCommentsService{},
			Tickets:      stubTicketsService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
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

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestFilterShopNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/filter-shop/shoes/sneakers?brands=nike", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for filter-shop got %d", resp.Code)
	}
}

func TestCartRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestAdminGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/", nil)
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager got %d", resp.Code)
	}
}

func TestFilterMobileValidatesIDs(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/filter-mobile?categoryId=not-a-uuid", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad categoryId got %d", resp.Code)
	}
}
