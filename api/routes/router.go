package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storelinehq/storeline-backend/api/controllers"
	"github.com/storelinehq/storeline-backend/api/middleware"
	authsvc "github.com/storelinehq/storeline-backend/internal/auth"
	cartsvc "github.com/storelinehq/storeline-backend/internal/cart"
	"github.com/storelinehq/storeline-backend/internal/catalog"
	commentsvc "github.com/storelinehq/storeline-backend/internal/comments"
	ordersvc "github.com/storelinehq/storeline-backend/internal/orders"
	ticketsvc "github.com/storelinehq/storeline-backend/internal/tickets"
	"github.com/storelinehq/storeline-backend/pkg/auth/session"
	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db"
	"github.com/storelinehq/storeline-backend/pkg/logger"
	"github.com/storelinehq/storeline-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth         authsvc.Service
	Catalog      catalog.Service
	CatalogAdmin catalog.AdminService
	Cart         cartsvc.Service
	Orders       ordersvc.Service
	Comments     commentsvc.Service
	Tickets      ticketsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/activate", controllers.AuthActivate(svcs.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", controllers.CatalogCategories(svcs.Catalog, logg))
		r.Get("/categories/{categorySlug}", controllers.CatalogCategoryDetail(svcs.Catalog, logg))
		r.Get("/products/{productSlug}", controllers.CatalogProductDetail(svcs.Catalog, logg))
		r.Get("/products/{productId}/comments", controllers.CommentsForProduct(svcs.Comments, logg))
		r.Get("/filter-shop/{categorySlug}", controllers.CatalogFilterShop(svcs.Catalog, logg))
		r.Get("/filter-shop/{categorySlug}/{subCategorySlug}", controllers.CatalogFilterShop(svcs.Catalog, logg))
		r.Get("/filter-mobile", controllers.CatalogFilterMobile(svcs.Catalog, logg))
	})

	// Gateway callback: server-to-server, authenticated by the payment token.
	r.Post("/api/v1/orders/{orderId}/payment-callback", controllers.OrderPaymentCallback(svcs.Orders, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Put("/items", controllers.CartPutItems(svcs.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderPlace(svcs.Orders, logg))
			r.Get("/", controllers.OrdersListMine(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			r.Post("/{orderId}/return", controllers.OrderReturn(svcs.Orders, logg))
		})

		r.Post("/comments", controllers.CommentCreate(svcs.Comments, logg))

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", controllers.TicketCreate(svcs.Tickets, logg))
			r.Get("/", controllers.TicketsListMine(svcs.Tickets, logg))
			r.Get("/{ticketId}", controllers.TicketDetail(svcs.Tickets, logg))
			r.Post("/{ticketId}/reply", controllers.TicketReply(svcs.Tickets, logg))
			r.Post("/{ticketId}/close", controllers.TicketClose(svcs.Tickets, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/categories", controllers.AdminCreateCategory(svcs.CatalogAdmin, logg))
			r.Put("/categories/{categoryId}", controllers.AdminUpdateCategory(svcs.CatalogAdmin, logg))
			r.Delete("/categories/{categoryId}", controllers.AdminDeleteCategory(svcs.CatalogAdmin, logg))
			r.Post("/categories/{categoryId}/sub-categories", controllers.AdminCreateSubCategory(svcs.CatalogAdmin, logg))
			r.Delete("/sub-categories/{subCategoryId}", controllers.AdminDeleteSubCategory(svcs.CatalogAdmin, logg))
			r.Post("/sub-categories/{subCategoryId}/types", controllers.AdminCreateType(svcs.CatalogAdmin, logg))
			r.Delete("/types/{typeId}", controllers.AdminDeleteType(svcs.CatalogAdmin, logg))
			r.Post("/products", controllers.AdminCreateProduct(svcs.CatalogAdmin, logg))
			r.Put("/products/{productId}", controllers.AdminUpdateProduct(svcs.CatalogAdmin, logg))
			r.Delete("/products/{productId}", controllers.AdminDeleteProduct(svcs.CatalogAdmin, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(svcs.Orders, logg))
			r.Post("/{orderId}/confirm", controllers.OrderConfirm(svcs.Orders, logg))
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/pending", controllers.AdminCommentsPending(svcs.Comments, logg))
			r.Post("/{commentId}/approve", controllers.AdminCommentApprove(svcs.Comments, logg))
			r.Delete("/{commentId}", controllers.AdminCommentDelete(svcs.Comments, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", controllers.AdminTicketsList(svcs.Tickets, logg))
		})
	})

	return r
}
